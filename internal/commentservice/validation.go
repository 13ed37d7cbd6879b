package commentservice

import (
	"strings"

	"github.com/sushihentaime/quill/internal/common"
)

func validateText(v *common.Validator, text string) {
	v.Check(strings.TrimSpace(text) != "", "text", "must be provided")
	v.Check(v.CheckStringLength(text, 0, MaxTextLength), "text", "must be at most 500 characters long")
}
