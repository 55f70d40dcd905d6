// Package xtream implements a client for the Xtream Codes player API.
//
// The client exposes two styles of access. Small payloads (authentication,
// category lists, item details) are decoded in one call. The three catalog
// list endpoints, which can return hundreds of thousands of rows, are
// exposed as raw streaming readers so callers can parse incrementally
// without holding the full response in memory.
//
// Provider responses are wildly inconsistent about number encoding: the
// same field may arrive as 42, "42" or "" depending on the panel software.
// The Flex* types absorb those differences during unmarshalling.
//
// Basic usage:
//
//	client := xtream.NewClient("http://provider:8080", "user", "pass")
//	info, err := client.GetAuthInfo(ctx)
//	if err != nil || !info.UserInfo.IsAuthenticated() {
//		// handle auth failure
//	}
//	rc, err := client.GetLiveStreamsReader(ctx)
//	if err != nil {
//		// handle fetch failure
//	}
//	defer rc.Close()
//	// feed rc to a streaming parser
package xtream
