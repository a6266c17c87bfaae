// Package config loads and validates remigrate configuration files.
//
//	            +-------------+
//	            |   Config    |
//	            | (Settings)  |
//	            +------+------+
//	                   |
//	     +-------------+-------------+
//	     |             |             |
//	+----+----+   +----+----+   +----+----+
//	|   HCL   |   |  YAML   |   |  JSON   |
//	| Parser  |   | Parser  |   | Parser  |
//	+---------+   +---------+   +---------+
//
// 🎯 Purpose:
//   - Picks a parser by file extension
//   - Rejects unknown fields in every format
//   - Fills defaults for suffix, workers, adapter and markers
//   - Builds the effective rule catalog from built-in and user rules
//
// 🔄 Flow:
//  1. Discover finds .remigrate.{hcl,yaml,yml,json} or falls back to Default
//  2. The parser decodes the file into a Config
//  3. Validate fills defaults, checks globs and compiles every rule
//  4. Catalog and Verifier hand the result to the migration runner
//
// 🔍 Example:
//
//	cfg, err := config.Discover(ctx, ".")
//	if err != nil {
//		return err
//	}
//
//	cat, err := cfg.Catalog()
//	if err != nil {
//		return err
//	}
//
//	runner, err := migrate.New(migrate.Options{
//		Catalog:  cat,
//		Store:    store.NewDisk("", cfg.BackupSuffix),
//		Verifier: cfg.Verifier(),
//		Workers:  cfg.Workers,
//	})
//
// A complete HCL file is shown in the Load example.
package config
