// Package printing contains the print pagination bounded context.
// Adapters project entity lists into PrintableData, the PaginationEngine
// lays that shape out into fixed-capacity pages with repeated header and
// totals rows, and drafts keep an in-progress print configuration so a user
// can resume it later.
package printing
