// Package pages registers the built-in dashboard pages with the catalog.
// Import this package to ensure all pages are registered.
package pages

// This file exists to provide a single import point.
// Each page file uses init() to register its page.
