package validate_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type output struct {
	ToAddress string `json:"to_address" validate:"required"`
	Value     uint64 `json:"value" validate:"gt=0"`
}

type tx struct {
	Outputs []output `json:"outputs" validate:"required,min=1,dive"`
}

func TestCheck(t *testing.T) {
	t.Log("Given the need to validate request models.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the model is valid.", testID)
		{
			if err := validate.Check(tx{Outputs: []output{{ToAddress: "Bob", Value: 1}}}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen an output is invalid.", testID)
		{
			err := validate.Check(tx{Outputs: []output{{ToAddress: "", Value: 0}}})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

			fields := validate.GetFieldErrors(err).Fields()
			var named bool
			for field := range fields {
				if strings.HasSuffix(field, "outputs[0].to_address") {
					named = true
				}
			}
			if !named || len(fields) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould name the fields by their json names: %v", failed, testID, fields)
			}
			t.Logf("\t%s\tTest %d:\tShould name the fields by their json names.", success, testID)
		}
	}
}
