// Package fetch acquires report documents for the pipeline.
//
// HTTPFetcher performs a rate-limited GET and decodes the body using its
// declared or sniffed charset. Renderer drives headless Chrome for pages that
// build their tables with scripts, waiting a bounded time for a table element
// to appear. FileLoader reads uploaded .html files. Router picks one of
// them per source.
package fetch
