package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Sarvam Document Intelligence, job-based flow:
// 1. Create job   → POST /doc-digitization/job/v1
// 2. Upload URL   → POST /doc-digitization/job/v1/upload-files
// 3. Upload PDF   → PUT <presigned_url>
// 4. Start job    → POST /doc-digitization/job/v1/:job_id/start
// 5. Poll status  → GET  /doc-digitization/job/v1/:job_id/status
// 6. Download     → POST /doc-digitization/job/v1/:job_id/download-files

const sarvamDocBaseURL = "https://api.sarvam.ai/doc-digitization/job/v1"

const sarvamPollTimeout = 10 * time.Minute

// sarvamOCR digitizes a scanned PDF through the Sarvam cloud OCR and
// returns its full plain text.
func sarvamOCR(apiKey string, data []byte) (string, error) {
	jobID, err := sarvamCreateJob(apiKey)
	if err != nil {
		return "", fmt.Errorf("sarvam create job: %w", err)
	}
	log.Printf("Sarvam OCR: created job %s", jobID)

	uploadURL, err := sarvamGetUploadURL(apiKey, jobID, "document.pdf")
	if err != nil {
		return "", fmt.Errorf("sarvam get upload URL: %w", err)
	}
	if err := sarvamUpload(uploadURL, data); err != nil {
		return "", fmt.Errorf("sarvam upload: %w", err)
	}

	if err := sarvamStartJob(apiKey, jobID); err != nil {
		return "", fmt.Errorf("sarvam start: %w", err)
	}

	state, err := sarvamPollStatus(apiKey, jobID, sarvamPollTimeout)
	if err != nil {
		return "", err
	}
	if state != "Completed" && state != "PartiallyCompleted" {
		return "", fmt.Errorf("sarvam job ended with state: %s", state)
	}

	downloadURL, err := sarvamGetDownloadURL(apiKey, jobID)
	if err != nil {
		return "", fmt.Errorf("sarvam download URL: %w", err)
	}

	text, err := sarvamDownloadText(downloadURL)
	if err != nil {
		return "", fmt.Errorf("sarvam parse output: %w", err)
	}
	return text, nil
}

// --- API helpers ---

func sarvamRequest(method, url string, body interface{}, apiKey string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-subscription-key", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 60 * time.Second}
	return client.Do(req)
}

func sarvamCreateJob(apiKey string) (string, error) {
	resp, err := sarvamRequest("POST", sarvamDocBaseURL, map[string]interface{}{
		"job_parameters": map[string]string{
			"language":      "en-IN",
			"output_format": "md",
		},
	}, apiKey)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("create job failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parse create job response: %w", err)
	}
	return result.JobID, nil
}

func sarvamGetUploadURL(apiKey, jobID, fileName string) (string, error) {
	resp, err := sarvamRequest("POST", sarvamDocBaseURL+"/upload-files", map[string]interface{}{
		"job_id": jobID,
		"files":  []string{fileName},
	}, apiKey)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("get upload URL failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}
	return extractPresignedURL(bodyBytes, "upload_urls")
}

func sarvamUpload(uploadURL string, data []byte) error {
	req, err := http.NewRequest("PUT", uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", "application/pdf")

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

func sarvamStartJob(apiKey, jobID string) error {
	url := fmt.Sprintf("%s/%s/start", sarvamDocBaseURL, jobID)
	resp, err := sarvamRequest("POST", url, nil, apiKey)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("start job failed (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

func sarvamPollStatus(apiKey, jobID string, timeout time.Duration) (string, error) {
	url := fmt.Sprintf("%s/%s/status", sarvamDocBaseURL, jobID)
	deadline := time.Now().Add(timeout)
	pollInterval := 3 * time.Second

	for time.Now().Before(deadline) {
		resp, err := sarvamRequest("GET", url, nil, apiKey)
		if err != nil {
			return "", err
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var status struct {
			JobState     string `json:"job_state"`
			ErrorMessage string `json:"error_message"`
			JobDetails   []struct {
				ErrorMessage string `json:"error_message"`
			} `json:"job_details"`
		}
		if err := json.Unmarshal(bodyBytes, &status); err != nil {
			return "", fmt.Errorf("parse status: %w (body: %.200s)", err, string(bodyBytes))
		}

		switch status.JobState {
		case "Completed", "PartiallyCompleted":
			return status.JobState, nil
		case "Failed":
			errMsg := status.ErrorMessage
			for _, detail := range status.JobDetails {
				if detail.ErrorMessage != "" {
					errMsg = detail.ErrorMessage
				}
			}
			if errMsg == "" {
				errMsg = "unknown error"
			}
			return status.JobState, fmt.Errorf("job failed: %s", errMsg)
		}

		time.Sleep(pollInterval)
		if pollInterval < 10*time.Second {
			pollInterval += time.Second
		}
	}

	return "", fmt.Errorf("timeout waiting for job completion")
}

func sarvamGetDownloadURL(apiKey, jobID string) (string, error) {
	apiURL := fmt.Sprintf("%s/%s/download-files", sarvamDocBaseURL, jobID)
	resp, err := sarvamRequest("POST", apiURL, nil, apiKey)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("get download URL failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}
	return extractPresignedURL(bodyBytes, "download_urls")
}

// extractPresignedURL pulls the first presigned URL out of a response. The
// urls field can map filename to a plain string or to a nested object with
// a "url" key.
func extractPresignedURL(body []byte, field string) (string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("parse response: %w (body: %.200s)", err, string(body))
	}
	urlsRaw, ok := raw[field]
	if !ok {
		return "", fmt.Errorf("no %s in response (body: %.200s)", field, string(body))
	}

	var simpleMap map[string]string
	if err := json.Unmarshal(urlsRaw, &simpleMap); err == nil {
		for _, u := range simpleMap {
			return u, nil
		}
	}

	var nestedMap map[string]interface{}
	if err := json.Unmarshal(urlsRaw, &nestedMap); err == nil {
		for _, val := range nestedMap {
			switch v := val.(type) {
			case string:
				return v, nil
			case map[string]interface{}:
				if urlStr, ok := v["url"].(string); ok {
					return urlStr, nil
				}
				for _, inner := range v {
					if s, ok := inner.(string); ok && strings.HasPrefix(s, "http") {
						return s, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract presigned URL from %s", field)
}

// sarvamDownloadText fetches the job output and returns it as plain text.
// The output arrives as markdown; formatting is stripped.
func sarvamDownloadText(downloadURL string) (string, error) {
	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Get(downloadURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("download failed (%d): %s", resp.StatusCode, string(body))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	text := stripMarkdownFormatting(string(content))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("sarvam output contained no extractable text")
	}
	return text, nil
}

var (
	mdHeaderRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	mdManyNLRe = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdownFormatting removes basic markdown formatting to get clean
// text while preserving the content structure.
func stripMarkdownFormatting(text string) string {
	text = mdHeaderRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = strings.ReplaceAll(text, "*", "")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = mdManyNLRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
