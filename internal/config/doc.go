// Package config provides configuration management for idcmap.
//
// Configuration comes from three layers:
//   - Default* constants documenting the safe defaults
//   - CLI flags mirrored into the flat Config struct
//   - An optional YAML file (.idcmap) supplying region tables, curated
//     seed records, known cluster markers, and per-site HTTP overrides
//
// The package also owns the region table data: bounding boxes for target
// macro-regions, their administrative subdivisions, exclusion zones for
// adjacent frequently-confused regions, and core-override zones. Built-in
// tables exist for Shanghai and Guangdong; YAML tables with the same name
// replace them.
//
// Design decision: Region tables live in config rather than in the region
// package because they are data, not behavior. The classifier consumes a
// table; it does not define one.
package config
