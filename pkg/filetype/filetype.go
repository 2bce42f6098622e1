package filetype

import (
	"path/filepath"
	"strings"
)

// Kind classifies a material by its file extension.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindMP3   Kind = "mp3"
	KindWAV   Kind = "wav"
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindExe   Kind = "exe"
	KindZip   Kind = "zip"
	KindDoc   Kind = "doc"
	KindXls   Kind = "xls"
	KindPpt   Kind = "ppt"
	KindOther Kind = "other"
)

var extToKind = map[string]Kind{
	".pdf":  KindPDF,
	".mp3":  KindMP3,
	".wav":  KindWAV,
	".mp4":  KindVideo,
	".avi":  KindVideo,
	".mov":  KindVideo,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".exe":  KindExe,
	".zip":  KindZip,
	".rar":  KindZip,
	".doc":  KindDoc,
	".docx": KindDoc,
	".xls":  KindXls,
	".xlsx": KindXls,
	".ppt":  KindPpt,
	".pptx": KindPpt,
}

var extToMIME = map[string]string{
	".pdf":  "application/pdf",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".exe":  "application/x-msdownload",
	".zip":  "application/zip",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// scannableExts is the accepted set for the directory scanner. It is
// deliberately narrower than the Kind enumeration: only these formats are
// picked up automatically from the materials root.
var scannableExts = map[string]struct{}{
	".pdf":  {},
	".mp3":  {},
	".mp4":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Ext returns the lowercased extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Detect maps a file name to its Kind. Unknown extensions yield KindOther.
func Detect(name string) Kind {
	if kind, ok := extToKind[Ext(name)]; ok {
		return kind
	}
	return KindOther
}

// ContentType maps a file name to the MIME type used in HTTP responses.
// Unknown extensions yield application/octet-stream.
func ContentType(name string) string {
	if mime, ok := extToMIME[Ext(name)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Scannable reports whether the scanner registers files with this name.
func Scannable(name string) bool {
	_, ok := scannableExts[Ext(name)]
	return ok
}
