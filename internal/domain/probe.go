package domain

// MediaInfo is the probe result for one media file: the track summary
// plus the quality label derived from the video height.
type MediaInfo struct {
	FileType   string `json:"file_type"`
	VideoCodec string `json:"video_codec"`
	Audio      string `json:"audio"`
	Subtitle   string `json:"subtitle"`
	Height     int    `json:"height"`
	Quality    string `json:"quality"`
}
