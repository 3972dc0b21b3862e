package main

import "github.com/liamcoop/creditreports/screening"

// UploadResponse is returned after a report is stored
type UploadResponse struct {
	Message string `json:"message" example:"Report processed successfully"`
	ID      string `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
} // @name UploadResponse

// ScreeningResponse lists the outcome of every configured rule for one report
type ScreeningResponse struct {
	ID      string             `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Results []screening.Result `json:"results"`
} // @name ScreeningResponse

// EvaluateExpressionRequest is the body of POST /api/reports/{id}/screening
type EvaluateExpressionRequest struct {
	Expression string `json:"expression" example:"basicDetails.creditScore < 600" binding:"required"`
} // @name EvaluateExpressionRequest

// EvaluateExpressionResponse carries the result of an ad-hoc expression
type EvaluateExpressionResponse struct {
	ID     string           `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Result screening.Result `json:"result"`
} // @name EvaluateExpressionResponse

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Error processing file"`
	Details string `json:"details,omitempty" example:"invalid XML format: missing required root element <INProfileResponse> (found <Other>)"`
} // @name ErrorResponse

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
	Error  string `json:"error,omitempty"`
} // @name HealthResponse
