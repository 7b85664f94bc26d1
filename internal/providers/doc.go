// Package providers implements [enrollment.Provider] adapters for external
// enrollment data sources.
//
// The only production adapter is [ReportCardService], which talks to the
// Nevada Report Card portal over HTTP:
//
//   - Year bounds come from the portal's years endpoint, or from a pinned
//     range when no base URL is configured
//   - Per-year tables download as CSV exports and are parsed with a dynamic
//     header-to-column mapping, since the portal reorders and renames
//     columns between report vintages
//
// Authentication is optional and layered: an OAuth2 client-credentials
// token source for the data API, or replayed browser session headers parsed
// from a saved cURL command for gated portal downloads.
//
// All request and parse failures wrap [shared.ErrProvider] so callers can
// distinguish source failures from input validation.
package providers
