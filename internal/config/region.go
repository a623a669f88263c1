package config

// BoundingBox is an axis-aligned latitude/longitude rectangle.
// Boundaries are inclusive on both ends.
type BoundingBox struct {
	LatMin float64 `yaml:"latMin" json:"lat_min"`
	LatMax float64 `yaml:"latMax" json:"lat_max"`
	LngMin float64 `yaml:"lngMin" json:"lng_min"`
	LngMax float64 `yaml:"lngMax" json:"lng_max"`
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax &&
		lng >= b.LngMin && lng <= b.LngMax
}

// Center returns the box's centroid, used for nearest-subdivision matching.
func (b BoundingBox) Center() (lat, lng float64) {
	return (b.LatMin + b.LatMax) / 2, (b.LngMin + b.LngMax) / 2
}

// Zone is a named bounding box. It serves both as a subdivision entry and
// as an exclusion-zone entry; only the table it appears in differs.
type Zone struct {
	// Name is the subdivision or zone name (e.g. "黄浦区", "苏州").
	Name string `yaml:"name" json:"name"`

	// Box is the zone's bounding rectangle.
	Box BoundingBox `yaml:"box" json:"box"`
}

// RegionTable describes one target macro-region: its coarse bounding box,
// its named administrative subdivisions, the exclusion zones for adjacent
// frequently-confused regions, and the core-override zones that protect
// central areas from overly aggressive exclusion rules.
//
// Subdivision order matters: distance ties in nearest-centroid matching
// are broken by first-listed-subdivision-wins. This tie-break is
// deterministic but arbitrary; it exists only to make classification a
// pure function of the table.
type RegionTable struct {
	// Name is the macro-region identifier used in CLI flags and reports.
	Name string `yaml:"name" json:"name"`

	// Label is the human-readable region name used in generated
	// placeholder facility names (e.g. "上海市").
	Label string `yaml:"label" json:"label"`

	// Macro is the coarse bounding rectangle. Points outside it are
	// immediately inadmissible.
	Macro BoundingBox `yaml:"macro" json:"macro"`

	// Subdivisions are the named administrative subdivisions, in
	// tie-break priority order.
	Subdivisions []Zone `yaml:"subdivisions" json:"subdivisions"`

	// ExclusionZones are bounding boxes of neighboring regions whose
	// coordinates commonly leak into macro-box queries. Membership marks
	// a point inadmissible unless a core zone overrides it.
	ExclusionZones []Zone `yaml:"exclusionZones" json:"exclusion_zones"`

	// CoreZones are "definitely inside" rectangles evaluated before the
	// exclusion zones, so exclusion rules cannot discard central points.
	CoreZones []BoundingBox `yaml:"coreZones" json:"core_zones"`

	// BoundaryLabel is the sentinel region assigned to points inside the
	// macro box but outside every subdivision. Boundary data is retained,
	// not dropped.
	BoundaryLabel string `yaml:"boundaryLabel" json:"boundary_label"`

	// Keywords are region-related words accepted by the facility-name
	// recognizer in addition to the generic facility-type keywords.
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// box is a brief constructor used by the built-in tables below.
func box(latMin, latMax, lngMin, lngMax float64) BoundingBox {
	return BoundingBox{LatMin: latMin, LatMax: latMax, LngMin: lngMin, LngMax: lngMax}
}

// ShanghaiTable returns the built-in region table for Shanghai
// municipality: sixteen district boxes, exclusion zones for the Suzhou,
// Kunshan, Jiaxing, and Haining areas, and core-override zones covering
// the city center, Pudong, Minhang, and Baoshan.
func ShanghaiTable() *RegionTable {
	return &RegionTable{
		Name:  "shanghai",
		Label: "上海市",
		Macro: box(30.6, 31.9, 120.8, 122.2),
		Subdivisions: []Zone{
			{Name: "黄浦区", Box: box(31.22, 31.24, 121.47, 121.51)},
			{Name: "徐汇区", Box: box(31.17, 31.22, 121.42, 121.47)},
			{Name: "长宁区", Box: box(31.20, 31.24, 121.40, 121.45)},
			{Name: "静安区", Box: box(31.22, 31.26, 121.44, 121.47)},
			{Name: "普陀区", Box: box(31.23, 31.28, 121.39, 121.45)},
			{Name: "虹口区", Box: box(31.26, 31.29, 121.48, 121.53)},
			{Name: "杨浦区", Box: box(31.26, 31.32, 121.50, 121.56)},
			{Name: "闵行区", Box: box(31.05, 31.20, 121.32, 121.47)},
			{Name: "宝山区", Box: box(31.29, 31.51, 121.44, 121.53)},
			{Name: "嘉定区", Box: box(31.35, 31.42, 121.20, 121.32)},
			{Name: "浦东新区", Box: box(30.85, 31.35, 121.50, 121.95)},
			{Name: "金山区", Box: box(30.72, 30.92, 121.20, 121.47)},
			{Name: "松江区", Box: box(30.98, 31.15, 121.20, 121.40)},
			{Name: "青浦区", Box: box(31.10, 31.25, 121.05, 121.25)},
			{Name: "奉贤区", Box: box(30.78, 30.98, 121.35, 121.65)},
			{Name: "崇明区", Box: box(31.40, 31.85, 121.30, 121.95)},
		},
		ExclusionZones: []Zone{
			{Name: "苏州", Box: box(31.6, 32.0, 120.5, 121.0)},
			{Name: "昆山", Box: box(31.4, 31.7, 120.8, 121.2)},
			{Name: "嘉兴", Box: box(30.6, 31.0, 120.5, 121.0)},
			{Name: "海宁", Box: box(30.4, 30.8, 120.3, 120.9)},
		},
		CoreZones: []BoundingBox{
			box(31.15, 31.35, 121.35, 121.55), // city center districts
			box(31.08, 31.40, 121.50, 121.93), // Pudong
			box(31.05, 31.20, 121.25, 121.50), // Minhang
			box(31.30, 31.55, 121.35, 121.60), // Baoshan
		},
		BoundaryLabel: "上海市边界地区",
		Keywords: []string{
			"上海", "Shanghai", "浦东", "黄浦", "徐汇", "长宁", "静安", "普陀",
			"虹口", "杨浦", "闵行", "宝山", "嘉定", "金山", "松江", "青浦",
			"奉贤", "崇明",
		},
	}
}

// GuangdongTable returns the built-in region table for Guangdong province.
// The original data set only distinguished the two major metro areas, so
// the subdivision table is coarse; boundary points are still retained
// under the boundary label.
func GuangdongTable() *RegionTable {
	return &RegionTable{
		Name:  "guangdong",
		Label: "广东省",
		Macro: box(20.0, 25.5, 109.0, 117.5),
		Subdivisions: []Zone{
			{Name: "深圳市", Box: box(22.40, 22.90, 113.75, 114.65)},
			{Name: "广州市", Box: box(22.75, 23.55, 112.95, 114.05)},
			{Name: "东莞市", Box: box(22.65, 23.15, 113.55, 114.25)},
			{Name: "佛山市", Box: box(22.60, 23.40, 112.40, 113.40)},
			{Name: "珠海市", Box: box(21.85, 22.45, 113.05, 113.70)},
			{Name: "惠州市", Box: box(22.40, 23.60, 113.85, 115.45)},
		},
		BoundaryLabel: "广东省边界地区",
		Keywords: []string{
			"广东", "深圳", "广州", "东莞", "佛山", "珠海", "中山", "惠州",
			"Guangdong", "Shenzhen", "Guangzhou",
		},
	}
}

// builtinTables maps region names to their built-in table constructors.
var builtinTables = map[string]func() *RegionTable{
	"shanghai":  ShanghaiTable,
	"guangdong": GuangdongTable,
}

// BuiltinTable returns the built-in region table with the given name.
func BuiltinTable(name string) (*RegionTable, bool) {
	ctor, ok := builtinTables[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// BuiltinTableNames returns the names of all built-in region tables in a
// stable order.
func BuiltinTableNames() []string {
	return []string{"shanghai", "guangdong"}
}
