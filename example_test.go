package web2pdf_test

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/registry"
)

// Example signs the shared browser in, then captures a page behind the
// login. Requires Chrome, so it is compiled but not run.
func Example() {
	logger := zap.NewExample()
	store := registry.NewFileStore("domains.txt")

	svc := web2pdf.New(
		web2pdf.NewRodLauncher(web2pdf.BrowserConfig{}, logger),
		store,
		web2pdf.WithOutputDir("output"),
		web2pdf.WithLogger(logger),
	)
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	if err := svc.EstablishSession(ctx, "https://intranet.example.com/login"); err != nil {
		fmt.Println("error:", err)
		return
	}

	res := svc.Capture(ctx, "https://intranet.example.com/reports/q3")
	if res.Err != nil {
		fmt.Println("error:", res.Err)
		return
	}
	fmt.Println(res.Path)
}

// ExampleSanitizeTitle shows how page titles become file name stems.
func ExampleSanitizeTitle() {
	fmt.Println(web2pdf.SanitizeTitle("Q3 Report: Sales/Marketing (draft)"))
	fmt.Println(web2pdf.SanitizeTitle("???"))
	// Output:
	// Q3 Report SalesMarketing draft
	// untitled
}

// ExampleDomainOf shows the registry key recorded for a login URL.
func ExampleDomainOf() {
	domain, err := web2pdf.DomainOf("https://Bücher.example:8443/login")
	fmt.Println(domain, err)

	_, err = web2pdf.DomainOf("ftp://example.com")
	fmt.Println(errors.Is(err, web2pdf.ErrInvalidURL))
	// Output:
	// xn--bcher-kva.example:8443 <nil>
	// true
}

// ExamplePageSettings_Validate shows page settings validation.
func ExamplePageSettings_Validate() {
	page := &web2pdf.PageSettings{Size: "a5", Orientation: "portrait", Margin: 0.5}
	err := page.Validate()
	fmt.Println(errors.Is(err, web2pdf.ErrInvalidPageSize))
	// Output: true
}
