// Package normalisers converts uploaded course material to plain text.
// Each sub-package handles one markup format; Registry dispatches by the
// format named on the imported content item.
package normalisers
