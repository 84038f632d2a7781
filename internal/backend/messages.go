package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// StatusError is a non-2xx backend response. Detail carries the backend's
// "detail" field when the body was JSON, else the raw body text.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Code)
}

func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{Code: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return se
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Detail != "" {
		se.Detail = payload.Detail
	} else {
		se.Detail = strings.TrimSpace(string(raw))
	}
	return se
}

// User-facing messages shown when an analysis attempt fails. The text is the
// contract with the UI and must not drift.
const (
	msgTimeout     = "การวิเคราะห์ใช้เวลานานเกินไป กรุณาลองใหม่หรือลดขนาดไฟล์"
	msgBadRequest  = "ข้อมูลที่ส่งมาไม่ถูกต้อง"
	msgTooLarge    = "ไฟล์มีขนาดใหญ่เกินไป กรุณาลดขนาดไฟล์"
	msgOverloaded  = "เซิร์ฟเวอร์กำลังประมวลผลหนัก อาจใช้เวลานานกว่าปกติ กรุณาลองใหม่ภายหลัง"
	msgUnreachable = "ไม่สามารถเชื่อมต่อกับเซิร์ฟเวอร์ Backend ได้ กรุณาตรวจสอบว่า Backend ทำงานอยู่หรือไม่"
	msgGeneric     = "เกิดข้อผิดพลาดในการวิเคราะห์"
)

// MessageFor translates an Analyze error into the Thai message shown to the
// user. The mapping is by failure class first, then by backend status code.
func MessageFor(err error) string {
	if err == nil {
		return ""
	}

	if isTimeout(err) {
		return msgTimeout
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusBadRequest:
			if se.Detail != "" {
				return se.Detail
			}
			return msgBadRequest
		case se.Code == http.StatusRequestEntityTooLarge:
			return msgTooLarge
		case se.Code == http.StatusInternalServerError:
			detail := se.Detail
			if detail == "" {
				detail = "No details"
			}
			return "เกิดข้อผิดพลาดที่เซิร์ฟเวอร์ กรุณาลองใหม่อีกครั้ง (" + detail + ")"
		case se.Code == http.StatusServiceUnavailable || se.Code == http.StatusGatewayTimeout:
			return msgOverloaded
		case se.Code >= 500:
			return fmt.Sprintf("เซิร์ฟเวอร์ไม่สามารถให้บริการได้ในขณะนี้ (%d)", se.Code)
		default:
			if se.Detail != "" {
				return se.Detail
			}
			return fmt.Sprintf("เกิดข้อผิดพลาด (%d)", se.Code)
		}
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		return msgUnreachable
	}

	return msgGeneric
}

// isTimeout covers both context deadlines and transport-level timeouts, which
// url.Error reports through its Timeout method.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
