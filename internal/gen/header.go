package gen

import "fmt"

// Header returns the stamp written at the top of a generated artifact.
// Deliberately free of timestamps: regeneration with unchanged inputs must
// be byte-identical.
func Header(artifact string) string {
	return fmt.Sprintf("// Code generated by prelude; DO NOT EDIT.\n// artifact: %s\n\n", artifact)
}
