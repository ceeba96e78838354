package topology

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"boosttester/utils"
)

///////////////////////////////////////////////////////////////////////////////
// Sysfs Enumerator — /sys/devices/system Walk
///////////////////////////////////////////////////////////////////////////////

// Sysfs enumerates topology from a filesystem rooted at /sys/devices/system.
// Offline units (no topology directory) are skipped.
type Sysfs struct {
	FS fs.FS
}

// NewSysfs wraps fsys, which must be rooted at the "system" directory.
func NewSysfs(fsys fs.FS) *Sysfs {
	return &Sysfs{FS: fsys}
}

// Enumerate implements Enumerator. Each call rescans the tree.
func (s *Sysfs) Enumerate(buf []Relation) (Result, error) {
	records, err := s.scan()
	if err != nil {
		return Result{}, err
	}
	if len(buf) < len(records) {
		return Result{Status: StatusNeedSpace, Len: len(records)}, nil
	}
	n := copy(buf, records)
	return Result{Status: StatusComplete, Len: n}, nil
}

type cacheKey struct {
	level  uint8
	typ    CacheType
	shared string
}

func (s *Sysfs) read(name string) (string, error) {
	b, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(utils.B2s(b)), nil
}

func (s *Sysfs) readInt(name string) (int, error) {
	v, err := s.read(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// numbered lists directory entries named prefix<N>, sorted by N.
func (s *Sysfs) numbered(dir, prefix string) ([]int, error) {
	entries, err := fs.ReadDir(s.FS, dir)
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		n, err := strconv.Atoi(name[len(prefix):])
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *Sysfs) scan() ([]Relation, error) {
	cpus, err := s.numbered("cpu", "cpu")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	var (
		cores      []Relation
		coreSeen   = map[string]bool{}
		packages   []Relation
		packageIdx = map[int]int{}
		caches     []Relation
		cacheSeen  = map[cacheKey]bool{}
		online     Mask
	)

	for _, cpu := range cpus {
		base := "cpu/cpu" + strconv.Itoa(cpu)

		siblings, err := s.read(base + "/topology/thread_siblings_list")
		if err != nil {
			if siblings, err = s.read(base + "/topology/core_cpus_list"); err != nil {
				continue
			}
		}
		online = online.Set(cpu)

		if !coreSeen[siblings] {
			units, err := utils.ParseCPUList(siblings)
			if err != nil {
				return nil, fmt.Errorf("%s siblings %q: %w", base, siblings, err)
			}
			coreSeen[siblings] = true
			cores = append(cores, Relation{Kind: RelationProcessorCore, Mask: MaskOf(units...)})
		}

		pkg, err := s.readInt(base + "/topology/physical_package_id")
		if err != nil || pkg < 0 {
			pkg = 0
		}
		i, ok := packageIdx[pkg]
		if !ok {
			i = len(packages)
			packageIdx[pkg] = i
			packages = append(packages, Relation{Kind: RelationProcessorPackage})
		}
		packages[i].Mask = packages[i].Mask.Set(cpu)

		indexes, err := s.numbered(base+"/cache", "index")
		if err != nil {
			continue
		}
		for _, idx := range indexes {
			dir := base + "/cache/index" + strconv.Itoa(idx)
			level, err := s.readInt(dir + "/level")
			if err != nil || level <= 0 || level > 255 {
				continue
			}
			typ, _ := s.read(dir + "/type")
			shared, err := s.read(dir + "/shared_cpu_list")
			if err != nil {
				shared = strconv.Itoa(cpu)
			}
			key := cacheKey{level: uint8(level), typ: ParseCacheType(typ), shared: shared}
			if cacheSeen[key] {
				continue
			}
			cacheSeen[key] = true
			units, err := utils.ParseCPUList(shared)
			if err != nil {
				return nil, fmt.Errorf("%s shared_cpu_list %q: %w", dir, shared, err)
			}
			caches = append(caches, Relation{
				Kind:  RelationCache,
				Mask:  MaskOf(units...),
				Cache: CacheInfo{Level: key.level, Type: key.typ},
			})
		}
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("%w: no online cpu exposes topology", ErrUnsupported)
	}

	// Order cores by their first unit so index order follows unit numbering.
	sort.SliceStable(cores, func(a, b int) bool {
		return cores[a].Mask.First() < cores[b].Mask.First()
	})

	numa, err := s.nodes()
	if err != nil {
		return nil, err
	}
	if len(numa) == 0 {
		numa = []Relation{{Kind: RelationNUMANode, Mask: online}}
	}

	records := make([]Relation, 0, len(numa)+len(packages)+len(cores)+len(caches))
	records = append(records, numa...)
	records = append(records, packages...)
	records = append(records, cores...)
	records = append(records, caches...)
	return records, nil
}

// nodes reads node/nodeN/cpulist. A missing node directory is not an error.
func (s *Sysfs) nodes() ([]Relation, error) {
	ids, err := s.numbered("node", "node")
	if err != nil {
		return nil, nil
	}
	var out []Relation
	for _, id := range ids {
		dir := "node/node" + strconv.Itoa(id)
		list, err := s.read(dir + "/cpulist")
		if err != nil {
			continue
		}
		units, err := utils.ParseCPUList(list)
		if err != nil {
			return nil, fmt.Errorf("%s cpulist %q: %w", dir, list, err)
		}
		out = append(out, Relation{Kind: RelationNUMANode, Mask: MaskOf(units...)})
	}
	return out, nil
}
