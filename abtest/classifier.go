// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

import "strings"

// RequestMeta carries the request signals the classifier looks at.
// SecFetch* fields are empty when the client sent no fetch metadata.
type RequestMeta struct {
	UserAgent    string
	SecFetchMode string
	SecFetchDest string
	SecFetchSite string
	IPHash       string
}

// denyTokens mark a user agent as automated. Checked case-insensitively
// and before allowTokens, so "Googlebot (compatible; Mozilla/5.0)" stays
// excluded even though it also names a browser.
var denyTokens = []string{
	"bot",
	"crawler",
	"crawl",
	"spider",
	"slurp",
	"curl",
	"wget",
	"python",
	"httpx",
	"aiohttp",
	"go-http-client",
	"java/",
	"okhttp",
	"libwww",
	"scrapy",
	"phantomjs",
	"headless",
	"lighthouse",
	"pingdom",
	"uptime",
	"monitor",
	"scanner",
	"probe",
	"preview",
	"facebookexternalhit",
	"whatsapp",
	"telegrambot",
	"discordbot",
	"slackbot",
}

// allowTokens are browser engine names. A user agent must contain at least
// one to count as a real browser; an empty or unrecognized UA fails closed.
var allowTokens = []string{
	"mozilla",
	"chrome",
	"safari",
	"firefox",
	"edge",
	"edg/",
	"opera",
	"opr/",
	"msie",
	"trident",
	"webkit",
	"gecko",
}

// IsEligibleNavigation reports whether the request looks like a human
// top-level page navigation. Eligibility gates exposure counting only:
// everyone gets a variant and a page, but only eligible views enter the
// denominator.
//
// The check fails closed: no user agent means not eligible, and an
// unrecognized one too. Fetch metadata (Sec-Fetch-*) is consulted only
// when present, so older browsers that never send it still pass on the
// user agent check alone.
func IsEligibleNavigation(meta RequestMeta) bool {
	ua := strings.ToLower(strings.TrimSpace(meta.UserAgent))
	if ua == "" {
		return false
	}

	for _, tok := range denyTokens {
		if strings.Contains(ua, tok) {
			return false
		}
	}

	allowed := false
	for _, tok := range allowTokens {
		if strings.Contains(ua, tok) {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	// Fetch metadata, when sent, must describe a top-level navigation.
	// Prefetch, prerender, embedding in a cross-site frame, and
	// subresource loads are all rejected here.
	if meta.SecFetchMode != "" && meta.SecFetchMode != "navigate" {
		return false
	}
	if meta.SecFetchDest != "" && meta.SecFetchDest != "document" && meta.SecFetchDest != "iframe" {
		return false
	}
	switch meta.SecFetchSite {
	case "", "none", "same-origin":
	default:
		return false
	}

	return true
}
