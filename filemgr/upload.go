package filemgr

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"regexp"

	"agromart/utils"

	"github.com/julienschmidt/httprouter"
)

// UploadImage handles multipart uploads on the form field "image".
func UploadImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := ReadAll(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	filename, err := SaveImage(data, header.Filename)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"url": "/uploads/" + filename})
}

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-z]+;base64,`)

// UploadBase64 handles JSON uploads of the form {image, filename} where
// image may carry a data-URL prefix.
func UploadBase64(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Image    string `json:"image"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Image == "" || input.Filename == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Image and filename are required")
		return
	}

	raw := dataURLPrefix.ReplaceAllString(input.Image, "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid base64 payload")
		return
	}

	filename, err := SaveImage(data, input.Filename)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"url": "/uploads/" + filename})
}
