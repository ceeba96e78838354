package topology

import (
	"github.com/klauspost/cpuid/v2"
	periphcpu "periph.io/x/host/v3/cpu"
)

// Identify reads vendor, brand and display family from CPUID. The boost
// frequency comes from CPUID when the part advertises it, otherwise from the
// kernel's cpufreq maximum.
func Identify() Identity {
	id := Identity{
		Vendor:  cpuid.CPU.VendorString,
		Brand:   cpuid.CPU.BrandName,
		Family:  cpuid.CPU.Family,
		BoostHz: cpuid.CPU.BoostFreq,
	}
	if id.Vendor == "" {
		id.Vendor = cpuid.CPU.VendorID.String()
	}
	if id.BoostHz <= 0 {
		id.BoostHz = periphcpu.MaxSpeed()
	}
	return id
}
