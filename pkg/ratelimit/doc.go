// Package ratelimit provides rate limiting for requests against droidz.org.
//
// Two limiter instances are used by the scraper: one shared by all page
// fetches (catalog listings, the homepage, detail pages) and a much slower
// one for archive downloads, since archives are large and the site is small.
//
// Available Implementations:
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Guarantees no burst above the allowance in any window
//   - Default implementation used by the scraper
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Sliding window: 1 download per 5 seconds
//	limiter := ratelimit.NewSlidingWindow(1, 5*time.Second)
//
//	// Block until allowed
//	limiter.Wait()
//	// Proceed with request
package ratelimit
