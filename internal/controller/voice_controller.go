// internal/controller/voice_controller.go
package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dineshachuthan/storyteller-backend/internal/auth"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

// maxSampleUpload caps a single recorded sample at 10 MB.
const maxSampleUpload = 10 << 20

type VoiceController struct {
	VoiceService *service.VoiceService
}

func (c *VoiceController) ListESMItems(w http.ResponseWriter, r *http.Request) {
	items, err := c.VoiceService.ListESMItems()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": items})
}

func (c *VoiceController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	profile, err := c.VoiceService.CreateProfile(auth.UserID(r), body.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (c *VoiceController) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.VoiceService.ListProfiles(auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": profiles})
}

func (c *VoiceController) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	profile, err := c.VoiceService.GetProfile(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UploadSample accepts a multipart form with an "audio" file part and an
// "esm_item_id" field naming the prompt the recording answers.
func (c *VoiceController) UploadSample(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := r.ParseMultipartForm(maxSampleUpload); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	esmItemID, _ := strconv.Atoi(r.FormValue("esm_item_id"))
	durationSecs, _ := strconv.ParseFloat(r.FormValue("duration_secs"), 64)

	file, _, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "audio file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sample, err := c.VoiceService.AddSample(r.Context(), id, auth.UserID(r), esmItemID, file, durationSecs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sample)
}

func (c *VoiceController) StartTraining(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	profile, err := c.VoiceService.StartTraining(r.Context(), id, auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, profile)
}

// DownloadSample streams a stored recording back, owner only.
func (c *VoiceController) DownloadSample(w http.ResponseWriter, r *http.Request) {
	profileID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	sampleID, _ := strconv.Atoi(chi.URLParam(r, "sampleId"))

	key, err := c.VoiceService.SampleObjectKey(profileID, auth.UserID(r), sampleID)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := c.VoiceService.ReadSample(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	io.Copy(w, body)
}
