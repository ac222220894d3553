// Package weekly builds the IGUV weekly digest. It collects dated links from
// a handful of listing pages and feeds, asks a text-generation service for a
// structured digest, renders the digest as an HTML fragment and publishes the
// fragment into a WordPress page.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, gemini/, wordpress/).
package weekly
