// Package docs talks to docs.rs: it builds page URLs, fetches rustdoc HTML
// and extracts the readable text body. The composite page identity
// (PageRequest) and the extracted payload (PageContent) live here so the
// cache layer can key on them without pulling in any transport code.
package docs
