// Package main provides the entry point for the cmsfinger CLI.
//
// cmsfinger identifies the content management system behind web sites by
// fetching each page and matching it against a registry of fingerprints.
//
// Usage:
//
//	cmsfinger scan -c example.com
//	cmsfinger scan -u urls.txt -o result.txt
//
// See --help for all available options.
package main

func main() {
	Execute()
}
