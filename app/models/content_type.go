package models

import (
	"strings"
	"time"
)

// ContentType identifies a priced catalog variant. The numeric values are the
// unlock type codes stored in entitlement_grants.content_type and
// ledger_entries.content_type, so they must never be renumbered.
type ContentType uint8

const (
	ContentLongVideo         ContentType = 1
	ContentComicChapter      ContentType = 2
	ContentNovelChapter      ContentType = 3
	ContentAudioNovelChapter ContentType = 4
	ContentAnimeVideo        ContentType = 5
	ContentDarknetVideo      ContentType = 6
	ContentDouyinVideo       ContentType = 7
	ContentStarMedia         ContentType = 8
)

// DefaultVideoUnlockTTL is how long a single video unlock stays valid.
const DefaultVideoUnlockTTL = 7 * 24 * time.Hour

var contentTypeSlugs = map[ContentType]string{
	ContentLongVideo:         "long_video",
	ContentComicChapter:      "comic_chapter",
	ContentNovelChapter:      "novel_chapter",
	ContentAudioNovelChapter: "audio_novel_chapter",
	ContentAnimeVideo:        "anime_video",
	ContentDarknetVideo:      "darknet_video",
	ContentDouyinVideo:       "douyin_video",
	ContentStarMedia:         "star_media",
}

// AllContentTypes lists every unlockable variant in type-code order.
func AllContentTypes() []ContentType {
	return []ContentType{
		ContentLongVideo,
		ContentComicChapter,
		ContentNovelChapter,
		ContentAudioNovelChapter,
		ContentAnimeVideo,
		ContentDarknetVideo,
		ContentDouyinVideo,
		ContentStarMedia,
	}
}

// ParseContentType resolves a route slug such as "comic_chapter".
func ParseContentType(slug string) (ContentType, bool) {
	s := strings.ToLower(strings.TrimSpace(slug))
	for t, name := range contentTypeSlugs {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

func (t ContentType) String() string {
	if s, ok := contentTypeSlugs[t]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether t is one of the known variants.
func (t ContentType) Valid() bool {
	_, ok := contentTypeSlugs[t]
	return ok
}

// IsVideo reports whether the variant is a standalone video. Videos may be
// VIP-gated and their unlocks expire.
func (t ContentType) IsVideo() bool {
	switch t {
	case ContentLongVideo, ContentAnimeVideo, ContentDarknetVideo, ContentDouyinVideo, ContentStarMedia:
		return true
	default:
		return false
	}
}

// HasWorks reports whether items of this type belong to a work (comic, novel,
// audio novel) and can therefore be bought as a whole.
func (t ContentType) HasWorks() bool {
	switch t {
	case ContentComicChapter, ContentNovelChapter, ContentAudioNovelChapter:
		return true
	default:
		return false
	}
}

// ExpiresAt applies the variant's expiry policy to a grant created at now.
// A nil result means the grant is permanent.
func (t ContentType) ExpiresAt(now time.Time, videoTTL time.Duration) *time.Time {
	if !t.IsVideo() {
		return nil
	}
	if videoTTL <= 0 {
		videoTTL = DefaultVideoUnlockTTL
	}
	exp := now.Add(videoTTL)
	return &exp
}
