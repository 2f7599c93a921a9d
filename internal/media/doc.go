// Package media prepares snapshot images for delivery.
//
// Camera software drops full-resolution stills next to its alert clips.
// [PrepareSnapshot] decodes them (JPEG, PNG, GIF or WebP), honours EXIF
// orientation, shrinks anything larger than the configured dimension with a
// Lanczos filter and re-encodes the result as JPEG so that it always fits
// Telegram's photo limits.
package media
