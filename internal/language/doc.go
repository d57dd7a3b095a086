// Package language normalizes language identifiers between the 2-letter codes
// spoken by inference backends, the 3-letter codes carried in container tags,
// and full language names found in stream titles.
package language
