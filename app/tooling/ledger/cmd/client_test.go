package cmd

import (
	"testing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestParseOutputs(t *testing.T) {
	type table struct {
		name    string
		values  []string
		address string
		value   uint64
		fail    bool
	}

	tt := []table{
		{name: "plain", values: []string{"Alice:50"}, address: "Alice", value: 50},
		{name: "colon", values: []string{"host:port:7"}, address: "host:port", value: 7},
		{name: "zero", values: []string{"Alice:0"}, fail: true},
		{name: "missing", values: []string{"Alice"}, fail: true},
		{name: "empty-address", values: []string{":5"}, fail: true},
		{name: "not-number", values: []string{"Alice:lots"}, fail: true},
	}

	t.Log("Given the need to parse outputs from the command line.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen parsing %v.", testID, tst.values)
				{
					got, err := parseOutputs(tst.values)
					if tst.fail {
						if err == nil {
							t.Fatalf("\t%s\tTest %d:\tShould fail to parse.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould fail to parse.", success, testID)
						return
					}

					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to parse: %v", failed, testID, err)
					}

					if len(got) != 1 || got[0].ToAddress != tst.address || got[0].Value != tst.value {
						t.Fatalf("\t%s\tTest %d:\tShould get %s:%d: got %v", failed, testID, tst.address, tst.value, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get %s:%d.", success, testID, tst.address, tst.value)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
