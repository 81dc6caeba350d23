// Package log builds the slog loggers used by nextcrawl.
//
// SecureHandler wraps any slog.Handler and scrubs attributes before they are
// written: values under credential-like keys (authorization, cookie, token,
// ...) are masked, and URLs lose their userinfo and sensitive query
// parameters. Crawl URLs are logged at debug level, and a start URL or a
// configured header may carry credentials, so every logger goes through it.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("page fetched", "url", "http://user:pw@localhost/page_1.html")
//	// url=http://localhost/page_1.html
package log
