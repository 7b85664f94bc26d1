// Package enrollment implements retrieval and reshaping of Nevada school
// enrollment tables.
//
// The package contains two categories of types:
//
// 1. Tabular data:
//   - [Record] : One wide row per school or district and grade level, with
//     per-subgroup student counts as columns
//   - [Table] : An ordered collection of records for one fetch
//   - [TidyRecord] / [TidyTable] : The long-format reshape with one row per
//     subgroup observation
//   - [YearRange] : Inclusive bounds of retrievable school years
//
// 2. Operations ([Service]):
//   - [Service.AvailableYears] : The valid year bounds
//   - [Service.FetchEnr] : One year's table
//   - [Service.FetchEnrMulti] : Concatenated tables for several years
//   - [Service.TidyEnr] : Wide-to-long reshape
//
// Every operation is a single-shot request/response against a [Provider];
// no session state is retained and tables are never mutated after creation.
package enrollment

// Version is the release identifier exposed at the package boundary.
const Version = "0.3.0"
