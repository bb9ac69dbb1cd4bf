// Package download fetches stick archives into per-stick directories.
//
// Archives are written atomically via a temporary file and rename, so an
// interrupted run never leaves a truncated file behind. An existing stick
// directory doubles as the downloaded marker and is skipped unless
// overwriting is requested. Extraction shells out to an external unrar
// compatible tool because a number of the site's zip named archives are
// actually rar files that archive/zip cannot read.
package download
