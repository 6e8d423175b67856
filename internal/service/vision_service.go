package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Role1776/gigago"
	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ledgerlens/pkg/config"
)

// extractionPrompt asks the vision model for the fixed record schema. The
// response is treated as untrusted text regardless of what the prompt
// demands; the extract package does the actual enforcement.
const extractionPrompt = `Extract and return all structured fields from this receipt, invoice or check image in this JSON format:
{
  "invoice_number": string,
  "check_number": string,
  "po_number": string,
  "vendor": string,
  "vendor_address": string,
  "customer_name": string,
  "customer_address": string,
  "date": string,
  "due_date": string,
  "payment_date": string,
  "amount": string,
  "subtotal": string,
  "tax": string,
  "discount": string,
  "total": string,
  "currency": string,
  "payment_method": string,
  "account_number": string,
  "routing_number": string,
  "bank_name": string,
  "items": [
    {"item": string, "qty": string, "price": string, "total": string}
  ],
  "document_type": string,
  "notes": string
}
Return only the JSON. No explanations.`

const textPrompt = `The following is text extracted from a scanned financial document (receipt, invoice or check). ` +
	`Return the structured fields as JSON in the same schema you would use for an image. ` +
	`Return only the JSON. No explanations.

Document text:
%s`

// VisionService talks to the GigaChat API to turn a document file into the
// raw, best-effort JSON-ish text the normalizer consumes. Images go through
// the Vision attachment API; PDFs are read locally with go-fitz and
// structured through a plain text prompt.
type VisionService struct {
	client      *gigago.Client
	model       *gigago.GenerativeModel
	config      *config.GigaChatConfig
	logger      *zap.Logger
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewVisionService(cfg *config.GigaChatConfig, logger *zap.Logger) (*VisionService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel("GigaChat")
	model.Temperature = 0.0

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	accessToken, err := getAccessToken(ctx, cfg, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &VisionService{
		client:      client,
		model:       model,
		config:      cfg,
		logger:      logger,
		httpClient:  httpClient,
		accessToken: accessToken,
		baseURL:     "https://gigachat.devices.sberbank.ru/api/v1",
	}, nil
}

// ExtractDocument returns the model's raw response for one document file.
// The caller must never trust the result to be valid JSON.
func (s *VisionService) ExtractDocument(ctx context.Context, filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return s.extractFromImage(ctx, filePath)
	case ".pdf":
		return s.extractFromPDF(ctx, filePath)
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: jpg, jpeg, png, pdf)", ext)
	}
}

func (s *VisionService) extractFromImage(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileID, err := s.uploadFile(ctx, file, filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return s.visionCompletion(ctx, fileID, extractionPrompt)
}

// extractFromPDF pulls the embedded text out of the PDF locally and asks
// the model to structure it. Scanned PDFs without a text layer yield an
// empty extraction, which downstream normalization degrades to a defaulted
// record.
func (s *VisionService) extractFromPDF(ctx context.Context, pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var text strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", pdfPath),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			text.WriteString(pageText)
			text.WriteString("\n")
		}
	}

	pdfText := strings.TrimSpace(text.String())
	if pdfText == "" {
		return "", fmt.Errorf("no text found in PDF %s", pdfPath)
	}

	resp, err := s.model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: fmt.Sprintf(textPrompt, pdfText)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// uploadFile pushes the image to GigaChat file storage and returns the
// file id used by vision attachments.
func (s *VisionService) uploadFile(ctx context.Context, file io.Reader, fileName string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	s.logger.Info("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

// visionCompletion calls the chat completions endpoint with a file
// attachment. Attachment format per the GigaChat API docs: [["file_id"]].
func (s *VisionService) visionCompletion(ctx context.Context, fileID, prompt string) (string, error) {
	requestBody := map[string]any{
		"model": "GigaChat",
		"messages": []map[string]any{
			{
				"role":        "user",
				"content":     prompt,
				"attachments": [][]string{{fileID}},
			},
		},
		"temperature": 0.0,
		"stream":      false,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}

	text := strings.TrimSpace(visionResp.Choices[0].Message.Content)
	s.logger.Info("Document extracted via GigaChat Vision", zap.Int("text_length", len(text)))
	return text, nil
}

func (s *VisionService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// getAccessToken obtains an access token from the GigaChat OAuth endpoint.
// The API key is expected to be Base64-encoded already, per the API docs.
func getAccessToken(ctx context.Context, cfg *config.GigaChatConfig, httpClient *http.Client, logger *zap.Logger) (string, error) {
	oauthURL := "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	rqUID := uuid.New().String()

	formData := url.Values{}
	formData.Set("scope", cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, "POST", oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	req.Header.Set("Authorization", "Basic "+cfg.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(bodyBytes)),
		)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}
	return oauthResp.AccessToken, nil
}
