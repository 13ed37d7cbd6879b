package blogservice

import (
	"strconv"
	"strings"

	"github.com/sushihentaime/quill/internal/common"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(strings.TrimSpace(title) != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, MaxTitleLength), "title", "must be between 1 and "+strconv.Itoa(MaxTitleLength)+" characters long")
}

// validateContent checks the HTML content; the length limit applies to the text a reader sees.
func validateContent(v *common.Validator, content string) {
	v.Check(strings.TrimSpace(content) != "", "content", "must be provided")

	text, err := extractText(content)
	if err != nil {
		v.AddError("content", "must be valid HTML")
		return
	}
	v.Check(strings.TrimSpace(text) != "", "content", "must contain text")
	v.Check(v.CheckStringLength(text, 0, MaxContentLength), "content", "must be at most "+strconv.Itoa(MaxContentLength)+" characters long")
}
