package loader

import (
	"strings"
)

// --- ANDROID client request (/youtubei/v1/player) ---

type innertubeRequest struct {
	VideoID        string           `json:"videoId"`
	Context        innertubeContext `json:"context"`
	RacyCheckOk    bool             `json:"racyCheckOk"`
	ContentCheckOk bool             `json:"contentCheckOk"`
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

// --- Player response (watch page and /player share the shape) ---

type playerResponse struct {
	VideoDetails *struct {
		Title            string `json:"title"`
		Author           string `json:"author"`
		LengthSeconds    string `json:"lengthSeconds"`
		ViewCount        string `json:"viewCount"`
		ShortDescription string `json:"shortDescription"`
	} `json:"videoDetails"`
	Microformat *struct {
		PlayerMicroformatRenderer struct {
			PublishDate string `json:"publishDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

func (p *playerResponse) metadata(source string) map[string]string {
	meta := map[string]string{
		"source": source,
	}

	if d := p.VideoDetails; d != nil {
		meta["title"] = d.Title
		meta["author"] = d.Author
		meta["length_seconds"] = d.LengthSeconds
		meta["view_count"] = d.ViewCount
		meta["description"] = strings.TrimSpace(d.ShortDescription)
	}

	if p.Microformat != nil {
		meta["publish_date"] = p.Microformat.PlayerMicroformatRenderer.PublishDate
	}

	return meta
}

// --- Timedtext XML, legacy <transcript><text> and srv3 <timedtext><body><p> ---

type timedText struct {
	Lines      []timedLine      `xml:"text"`
	Paragraphs []timedParagraph `xml:"body>p"`
}

type timedLine struct {
	Text string `xml:",chardata"`
}

type timedParagraph struct {
	Text     string   `xml:",chardata"`
	Segments []string `xml:"s"`
}
