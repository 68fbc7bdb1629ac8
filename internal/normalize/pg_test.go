package normalize

import "testing"

func TestPgCoercions(t *testing.T) {
	if v := ToPgText("  Transportes   XYZ "); !v.Valid || v.String != "Transportes XYZ" {
		t.Errorf("ToPgText = %+v", v)
	}
	if v := ToPgText("   "); v.Valid {
		t.Errorf("blank text should be NULL, got %+v", v)
	}

	if v := ToPgDate("24-06-2025"); !v.Valid || v.Time.Year() != 2025 {
		t.Errorf("ToPgDate = %+v", v)
	}
	if v := ToPgDate("31-13-2025"); v.Valid {
		t.Errorf("invalid date should be NULL, got %+v", v)
	}

	if v := ToPgInt4("2019"); !v.Valid || v.Int32 != 2019 {
		t.Errorf("ToPgInt4 = %+v", v)
	}
	if v := ToPgInt4("12.5"); v.Valid {
		t.Errorf("non-integer should be NULL, got %+v", v)
	}

	if v := ToPgFloat8("12,5"); !v.Valid || v.Float64 != 12.5 {
		t.Errorf("ToPgFloat8 = %+v", v)
	}
	if v := ToPgFloat8(""); v.Valid {
		t.Errorf("empty float should be NULL, got %+v", v)
	}
}
