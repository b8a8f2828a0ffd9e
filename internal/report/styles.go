package report

import "github.com/xuri/excelize/v2"

// styleSet holds the fixed report styles, registered once per document.
type styleSet struct {
	banner         int
	timeHeader     int
	nameHeader     int
	locationHeader int
	photoHeader    int
	body           int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	center := &excelize.Alignment{
		Horizontal: "center",
		Vertical:   "center",
		WrapText:   true,
	}
	thin := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	banner, err := f.NewStyle(&excelize.Style{
		Fill:      solid("FFC000"),
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: center,
	})
	if err != nil {
		return nil, err
	}

	header := func(color string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill:      solid(color),
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: center,
			Border:    thin,
		})
	}
	timeHeader, err := header("D9D9D9")
	if err != nil {
		return nil, err
	}
	nameHeader, err := header("B4C6E7")
	if err != nil {
		return nil, err
	}
	locationHeader, err := header("F8CBAD")
	if err != nil {
		return nil, err
	}
	photoHeader, err := header("C6EFCE")
	if err != nil {
		return nil, err
	}

	body, err := f.NewStyle(&excelize.Style{
		Alignment: center,
		Border:    thin,
	})
	if err != nil {
		return nil, err
	}

	return &styleSet{
		banner:         banner,
		timeHeader:     timeHeader,
		nameHeader:     nameHeader,
		locationHeader: locationHeader,
		photoHeader:    photoHeader,
		body:           body,
	}, nil
}

func solid(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
}
