package llm

import (
	"github.com/phanvandien/ocr-script/constants"
)

const transcriptPrompt = `Trích xuất danh sách thí sinh từ ảnh bảng điểm bên dưới.
Với mỗi dòng trong bảng, lấy hai trường: SBD (số báo danh) và điểm Thi.
Trả về DUY NHẤT JSON theo định dạng sau, không kèm giải thích:
{
  "items": [
    { "sbd": "01234", "score": 8.5 }
  ]
}
Nếu ô điểm trống, ghi "score": 0.`

const certificatePrompt = `Trích xuất thông tin văn bằng từ ảnh bên dưới.
Các trường cần lấy: tên văn bằng, ngành, cơ sở cấp bằng, họ và tên người được cấp, ngày sinh.
Ngày sinh ghi theo định dạng dd/mm/yyyy.
Trả về DUY NHẤT JSON theo định dạng sau, không kèm giải thích:
{
  "items": [
    {
      "degree_name": "",
      "major": "",
      "issuing_institution": "",
      "full_name": "",
      "birth_date": "dd/mm/yyyy"
    }
  ]
}`

// PromptFor returns the fixed instruction sent with every image of mode.
func PromptFor(mode constants.Mode) string {
	if mode == constants.ModeCertificate {
		return certificatePrompt
	}
	return transcriptPrompt
}
