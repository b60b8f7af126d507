// Package tables registers the five veterinary import categories with the
// core registry. Binaries blank-import it:
//
//	import _ "github.com/JonMunkholm/vetimport/internal/core/tables"
//
// clinical.go holds the lab, vaccination and parasite-control tables;
// field.go holds mobile-clinic visits and equine health.
package tables
