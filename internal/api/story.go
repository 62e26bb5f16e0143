package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"geotale/pkg/geo"
	"geotale/pkg/model"
	"geotale/pkg/narrator"
	"geotale/pkg/taste"
	"geotale/pkg/version"
)

// Storyteller is the orchestrator surface the handler depends on.
type Storyteller interface {
	Tell(ctx context.Context, req narrator.Request) (*model.Decision, error)
}

// StoryHandler serves POST /api/story-both.
type StoryHandler struct {
	orch  Storyteller
	taste *taste.Service
}

// NewStoryHandler creates the handler.
func NewStoryHandler(orch Storyteller, ts *taste.Service) *StoryHandler {
	return &StoryHandler{orch: orch, taste: ts}
}

// storyRequest tolerates the field aliases different client builds send.
// encoding/json matches field names case-insensitively, which covers the
// capitalized variants. Unknown fields (including a free-form prompt) are
// ignored.
type storyRequest struct {
	Lat      *float64 `json:"lat"`
	Latitude *float64 `json:"latitude"`

	Lng       *float64 `json:"lng"`
	Lon       *float64 `json:"lon"`
	Longitude *float64 `json:"longitude"`

	Lang       string `json:"lang"`
	Language   string `json:"language"`
	Locale     string `json:"locale"`
	SpeechLang string `json:"speechLang"`

	UserID         string `json:"userId"`
	TasteProfileID string `json:"tasteProfileId"`
}

func (r *storyRequest) coords() (lat, lng float64, ok bool) {
	latP := firstFloat(r.Lat, r.Latitude)
	lngP := firstFloat(r.Lng, r.Lon, r.Longitude)
	if latP == nil || lngP == nil {
		return 0, 0, false
	}
	return *latP, *lngP, geo.ValidCoords(*latP, *lngP)
}

func (r *storyRequest) language() string {
	for _, l := range []string{r.Lang, r.Language, r.Locale, r.SpeechLang} {
		if l != "" {
			return model.NormalizeLang(l)
		}
	}
	return "en"
}

func firstFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

type poiView struct {
	Key         string      `json:"key"`
	Source      string      `json:"source"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	Anchor      *anchorView `json:"anchor,omitempty"`
}

type anchorView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type audioView struct {
	ContentType string `json:"contentType"`
	Base64      string `json:"base64"`
	Bytes       int    `json:"bytes"`
}

// storyResponse duplicates the story and audio under legacy and current
// names so older client builds keep working.
type storyResponse struct {
	ShouldSpeak          bool       `json:"shouldSpeak"`
	Reason               string     `json:"reason"`
	Poi                  *poiView   `json:"poi"`
	Facts                []string   `json:"facts"`
	Text                 string     `json:"text"`
	StoryText            string     `json:"storyText"`
	AudioBase64          string     `json:"audioBase64,omitempty"`
	AudioContentType     string     `json:"audioContentType,omitempty"`
	Audio                *audioView `json:"audio,omitempty"`
	DistanceMetersApprox float64    `json:"distanceMetersApprox,omitempty"`
	Lang                 string     `json:"lang"`
	Version              string     `json:"version"`
	TimingMs             int64      `json:"timingMs"`
}

func (h *StoryHandler) HandleStory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req storyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	lat, lng, ok := req.coords()
	if !ok {
		writeError(w, http.StatusBadRequest, model.ReasonLocationMissing, "lat and lng are required")
		return
	}

	lang := req.language()
	userKey := resolveUserKey(r, req.UserID)
	tasteID, profile := h.taste.Get(r.Context(), req.TasteProfileID)

	decision, err := h.orch.Tell(r.Context(), narrator.Request{
		Lat:     lat,
		Lng:     lng,
		UserKey: userKey,
		Lang:    lang,
		Taste:   profile,
		TasteID: tasteID,
	})
	if err != nil {
		writeError(w, upstreamStatus(err), "generation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, renderDecision(decision, lang, time.Since(start)))
}

func renderDecision(d *model.Decision, lang string, elapsed time.Duration) storyResponse {
	resp := storyResponse{
		ShouldSpeak:          d.ShouldSpeak,
		Reason:               d.Reason,
		Facts:                []string{},
		Text:                 d.StoryText,
		StoryText:            d.StoryText,
		DistanceMetersApprox: d.DistanceMetersApprox,
		Lang:                 lang,
		Version:              version.Version,
		TimingMs:             elapsed.Milliseconds(),
	}

	if d.POI != nil {
		resp.Poi = &poiView{
			Key:         d.POI.Key,
			Source:      d.POI.Source,
			Label:       d.POI.DisplayName(),
			Description: d.POI.Description,
			Anchor:      &anchorView{Lat: d.POI.Lat, Lng: d.POI.Lng},
		}
	}
	for _, f := range d.Facts {
		resp.Facts = append(resp.Facts, f.Text)
	}
	if d.ShouldSpeak && len(d.Audio) > 0 {
		b64 := base64.StdEncoding.EncodeToString(d.Audio)
		resp.AudioBase64 = b64
		resp.AudioContentType = d.AudioContentType
		resp.Audio = &audioView{
			ContentType: d.AudioContentType,
			Base64:      b64,
			Bytes:       len(d.Audio),
		}
	}
	return resp
}

// resolveUserKey prefers an explicit body field, then the X-User-Key
// header, then the caller address; anonymous as the last resort.
func resolveUserKey(r *http.Request, bodyUserID string) string {
	if bodyUserID != "" {
		return bodyUserID
	}
	if k := r.Header.Get("X-User-Key"); k != "" {
		return k
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "anon"
}
