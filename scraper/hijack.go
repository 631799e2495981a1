package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to CDP resource types. Stylesheets and
// scripts are deliberately absent: the results list needs both to render
// and to be clickable.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image": proto.NetworkResourceTypeImage,
	"Font":  proto.NetworkResourceTypeFont,
	"Media": proto.NetworkResourceTypeMedia,
	"Ping":  proto.NetworkResourceTypePing,
}

// trackerHosts are ad and analytics hosts that add network chatter and
// delay the idle wait without affecting the results list.
var trackerHosts = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"googletagservices.com": {},
	"facebook.net":          {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"criteo.com":            {},
	"hotjar.com":            {},
	"scorecardresearch.com": {},
}

// isTrackerHost checks host and each parent domain against trackerHosts.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for {
		if _, ok := trackerHosts[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
}

// blockedTypes builds the lookup set for the configured resource names.
// Unknown names are ignored.
func blockedTypes(names []string) map[proto.NetworkResourceType]struct{} {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	return blocked
}

// setupHijack installs a request interceptor that fails blocked resource
// types and, when blockTrackers is set, requests to tracker hosts.
//
// Returns the running HijackRouter so the caller can Stop it, or nil when
// there is nothing to block.
func setupHijack(page *rod.Page, resourceNames []string, blockTrackers bool) *rod.HijackRouter {
	blocked := blockedTypes(resourceNames)
	if len(blocked) == 0 && !blockTrackers {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, ok := blocked[ctx.Request.Type()]; ok {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if blockTrackers {
			if u, err := url.Parse(ctx.Request.URL().String()); err == nil && isTrackerHost(u.Hostname()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until router.Stop().
	go router.Run()

	return router
}
