package upload

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptors(names ...string) []FileDescriptor {
	fds := make([]FileDescriptor, len(names))
	for i, n := range names {
		fds[i] = FileDescriptor{Name: n, Size: 1024}
	}
	return fds
}

func TestSelectFilesFiltersByExtension(t *testing.T) {
	sel := SelectFiles(descriptors("a.txt", "b.exe", "c.PDF", "d.docx", "e.png"))

	require.Len(t, sel.Files, 3)
	assert.Equal(t, "a.txt", sel.Files[0].Name)
	assert.Equal(t, "c.PDF", sel.Files[1].Name)
	assert.Equal(t, "d.docx", sel.Files[2].Name)
	assert.Empty(t, sel.Warnings)
}

func TestSelectFilesTruncatesToCap(t *testing.T) {
	var names []string
	for i := 1; i <= 7; i++ {
		names = append(names, fmt.Sprintf("file%d.txt", i))
	}

	sel := SelectFiles(descriptors(names...))

	require.Len(t, sel.Files, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("file%d.txt", i+1), sel.Files[i].Name)
	}
	require.Len(t, sel.Warnings, 1)
	assert.Contains(t, sel.Warnings[0], "สูงสุด 5 ไฟล์")
	assert.Contains(t, sel.Warnings[0], "พบ 7 ไฟล์")
}

func TestSelectFilesNothingMatches(t *testing.T) {
	sel := SelectFiles(descriptors("a.exe", "b.zip"))

	assert.True(t, sel.Empty())
	require.Len(t, sel.Warnings, 1)
	assert.Contains(t, sel.Warnings[0], ".txt, .docx, .pdf")
}

func TestSelectFolderKeepsPaths(t *testing.T) {
	files := []FileDescriptor{
		{Name: "ch1.txt", Size: 10, RelPath: "novels/vol1/ch1.txt"},
		{Name: "notes.exe", Size: 10, RelPath: "novels/notes.exe"},
		{Name: "ch2.txt", Size: 10, RelPath: "novels/vol1/ch2.txt"},
	}

	sel := SelectFolder(files)

	require.Len(t, sel.Files, 2)
	assert.Equal(t, "novels/vol1/ch1.txt", sel.Files[0].RelPath)
	assert.Equal(t, "novels", sel.FolderName())
}

func TestSelectFilesDropsPaths(t *testing.T) {
	sel := SelectFiles([]FileDescriptor{{Name: "a.txt", Size: 1, RelPath: "x/a.txt"}})

	require.Len(t, sel.Files, 1)
	assert.Empty(t, sel.Files[0].RelPath)
	assert.Empty(t, sel.FolderName())
}

func TestSelectArchive(t *testing.T) {
	assert.NoError(t, SelectArchive(FileDescriptor{Name: "db.zip"}))
	assert.NoError(t, SelectArchive(FileDescriptor{Name: "DB.ZIP"}))

	err := SelectArchive(FileDescriptor{Name: "db.tar.gz"})
	require.Error(t, err)
	var fe *FormError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldArchive, fe.Field)
	assert.Contains(t, fe.Message, ".zip")
}

func TestValidateFormShortCircuitOrder(t *testing.T) {
	zip := &FileDescriptor{Name: "db.zip", Size: 1024}

	tests := []struct {
		name    string
		files   []FileDescriptor
		text    string
		archive *FileDescriptor
		field   string
		message string
	}{
		{
			name:  "no input at all",
			field: FieldInputFiles, message: "กรุณาเลือกไฟล์",
			archive: zip,
		},
		{
			name:  "too many files",
			files: descriptors("1.txt", "2.txt", "3.txt", "4.txt", "5.txt", "6.txt"),
			field: FieldInputFiles, message: "สูงสุด 5 ไฟล์",
			archive: zip,
		},
		{
			name:  "bad extension reported before missing archive",
			files: descriptors("a.exe"),
			field: FieldInputFiles, message: "ไม่ได้รับการสนับสนุน",
		},
		{
			name:  "missing archive",
			files: descriptors("a.txt"),
			field: FieldArchive, message: "กรุณาเลือกไฟล์ฐานข้อมูล",
		},
		{
			name:    "archive not zip",
			files:   descriptors("a.txt"),
			archive: &FileDescriptor{Name: "db.rar", Size: 10},
			field:   FieldArchive, message: ".zip เท่านั้น",
		},
		{
			name:    "oversize input file",
			files:   []FileDescriptor{{Name: "big.txt", Size: MaxFileSize + 1}},
			archive: zip,
			field:   FieldInputFiles, message: "สูงสุด 10MB",
		},
		{
			name:    "oversize archive",
			files:   descriptors("a.txt"),
			archive: &FileDescriptor{Name: "db.zip", Size: MaxArchiveSize + 1},
			field:   FieldArchive, message: "สูงสุด 50MB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForm(tt.files, tt.text, tt.archive)
			var fe *FormError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.Contains(t, fe.Message, tt.message)
		})
	}
}

func TestValidateFormTextOnlyIsEnough(t *testing.T) {
	err := ValidateForm(nil, "วางข้อความตรงนี้", &FileDescriptor{Name: "db.zip", Size: 10})
	assert.NoError(t, err)

	// Whitespace-only text does not count as input.
	err = ValidateForm(nil, "   \n ", &FileDescriptor{Name: "db.zip", Size: 10})
	assert.Error(t, err)
}

func TestValidateFormValid(t *testing.T) {
	err := ValidateForm(descriptors("a.txt", "b.pdf"), "", &FileDescriptor{Name: "db.zip", Size: 2048})
	assert.NoError(t, err)
}
