package enums

type Consent string

const (
	ConsentUnset Consent = "unset"
	ConsentYes   Consent = "yes"
	ConsentNo    Consent = "no"
)

// ConsentFromBool converts the nullable boolean column used by the queue table.
func ConsentFromBool(v *bool) Consent {
	if v == nil {
		return ConsentUnset
	}
	if *v {
		return ConsentYes
	}
	return ConsentNo
}

func (c Consent) Bool() *bool {
	switch c {
	case ConsentYes:
		v := true
		return &v
	case ConsentNo:
		v := false
		return &v
	case ConsentUnset:
		return nil
	default:
		return nil
	}
}

func (c Consent) Decided() bool {
	return c == ConsentYes || c == ConsentNo
}
