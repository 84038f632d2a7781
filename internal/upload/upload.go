// Package upload validates the analysis form before anything is forwarded to
// the backend: extension allow-list, file-count cap, and size caps.
package upload

import (
	"fmt"
	"path"
	"strings"
)

const (
	MaxInputFiles  = 5
	MaxFileSize    = 10 << 20 // 10 MiB per input file
	MaxArchiveSize = 50 << 20 // 50 MiB for the database archive
)

var allowedExtensions = []string{".txt", ".docx", ".pdf"}

// FileDescriptor describes one selected file. RelPath is set for folder
// selections (path relative to the chosen folder) and is cosmetic only.
type FileDescriptor struct {
	Name        string
	Size        int64
	ContentType string
	RelPath     string
}

func (fd FileDescriptor) extension() string {
	return strings.ToLower(path.Ext(fd.Name))
}

func allowed(fd FileDescriptor) bool {
	ext := fd.extension()
	for _, a := range allowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Selection is a validated, boundable set of input files plus any non-fatal
// warnings raised while building it. An empty selection with warnings means
// the caller should keep its previous selection.
type Selection struct {
	Files    []FileDescriptor
	Warnings []string
}

// Empty reports whether no files survived filtering.
func (s Selection) Empty() bool { return len(s.Files) == 0 }

// FolderName returns the top-level folder of a folder selection, "" for
// plain file selections.
func (s Selection) FolderName() string {
	for _, f := range s.Files {
		if f.RelPath != "" {
			if i := strings.IndexByte(f.RelPath, '/'); i > 0 {
				return f.RelPath[:i]
			}
		}
	}
	return ""
}

// SelectFiles filters a raw file list by the extension allow-list. Lists over
// the cap are truncated to the first MaxInputFiles entries with a warning;
// an all-filtered list yields an empty selection with a warning naming the
// allowed extensions.
func SelectFiles(files []FileDescriptor) Selection {
	return selectInput(files, false)
}

// SelectFolder is SelectFiles for folder picks: identical filtering, but the
// hierarchical paths are kept for display.
func SelectFolder(files []FileDescriptor) Selection {
	return selectInput(files, true)
}

func selectInput(files []FileDescriptor, fromFolder bool) Selection {
	var sel Selection
	for _, f := range files {
		if !allowed(f) {
			continue
		}
		if !fromFolder {
			f.RelPath = ""
		}
		sel.Files = append(sel.Files, f)
	}

	if sel.Empty() {
		if fromFolder {
			sel.Warnings = append(sel.Warnings, "ไม่พบไฟล์ที่รองรับในโฟลเดอร์ (.txt, .docx, .pdf)")
		} else {
			sel.Warnings = append(sel.Warnings, "ไม่พบไฟล์ที่รองรับ (รองรับเฉพาะ .txt, .docx, .pdf)")
		}
		return sel
	}

	if len(sel.Files) > MaxInputFiles {
		sel.Warnings = append(sel.Warnings,
			fmt.Sprintf("สามารถอัปโหลดได้สูงสุด %d ไฟล์ (พบ %d ไฟล์) - จะใช้ %d ไฟล์แรก",
				MaxInputFiles, len(sel.Files), MaxInputFiles))
		sel.Files = sel.Files[:MaxInputFiles]
	}

	return sel
}

// SelectArchive validates the reference-corpus archive slot. Anything but a
// .zip (case-insensitive) is rejected; the caller clears the slot on error.
func SelectArchive(fd FileDescriptor) error {
	if !strings.HasSuffix(strings.ToLower(fd.Name), ".zip") {
		return &FormError{Field: FieldArchive, Message: "ไฟล์ฐานข้อมูลต้องเป็นไฟล์ .zip เท่านั้น"}
	}
	return nil
}

// Form sections used as scroll targets for validation failures.
const (
	FieldInputFiles = "input_files"
	FieldArchive    = "database_file"
)

// FormError is a user-facing validation failure tied to a form section.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Message }

// ValidateForm is the composite pre-submission check. It short-circuits on
// the first failure so the user is pointed at one offending section at a
// time, in the order the form reads.
func ValidateForm(files []FileDescriptor, textInput string, archive *FileDescriptor) error {
	if len(files) == 0 && strings.TrimSpace(textInput) == "" {
		return &FormError{Field: FieldInputFiles, Message: "กรุณาเลือกไฟล์สำหรับวิเคราะห์ หรือใส่ข้อความโดยตรง"}
	}

	if len(files) > MaxInputFiles {
		return &FormError{Field: FieldInputFiles,
			Message: fmt.Sprintf("สามารถอัปโหลดได้สูงสุด %d ไฟล์เท่านั้น", MaxInputFiles)}
	}

	for _, f := range files {
		if !allowed(f) {
			return &FormError{Field: FieldInputFiles,
				Message: fmt.Sprintf("ไฟล์ %s ไม่ได้รับการสนับสนุน (รองรับเฉพาะ .txt, .docx, .pdf)", f.Name)}
		}
	}

	if archive == nil {
		return &FormError{Field: FieldArchive, Message: "กรุณาเลือกไฟล์ฐานข้อมูล (.zip)"}
	}
	if err := SelectArchive(*archive); err != nil {
		return err
	}

	for _, f := range files {
		if f.Size > MaxFileSize {
			return &FormError{Field: FieldInputFiles,
				Message: fmt.Sprintf("ไฟล์ %s มีขนาดใหญ่เกินไป (สูงสุด 10MB)", f.Name)}
		}
	}

	if archive.Size > MaxArchiveSize {
		return &FormError{Field: FieldArchive, Message: "ไฟล์ฐานข้อมูลมีขนาดใหญ่เกินไป (สูงสุด 50MB)"}
	}

	return nil
}
