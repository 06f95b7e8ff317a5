package descriptions

// Tool descriptions shown to MCP clients, with practical examples

const (
	PDFToImageDescription = `Render every page of a PDF into one tall image, pages stacked top to bottom.

**When to use:** Need to look at a whole document as a picture, e.g. to show it in a chat, attach it to a ticket, or feed it to an image model.

**How it works:** Pages are rasterized one at a time with Poppler's pdftoppm, scaled to the requested width and stacked on a white canvas. Pages that fail or time out are skipped and listed in the response; the call only fails when no page could be rendered.

**Examples:**
• Preview a report: "Render quarterly-report.pdf as a 1200px wide JPEG"
• Archive a scan: "Convert scanned-contract.pdf to PNG at quality 100"
• Small thumbnail strip: "Render slides.pdf as WebP, 400px wide, quality 60"

**Parameters:** path (required), output (defaults to the PDF's name with the format's extension, next to the PDF), width (pixels, default 1200), quality (1-100, default 90), format (jpg, jpeg, png, webp; default jpg).

**Best practices:** Run pdf_inspect first on very long documents; the output height grows with the page count.`

	PDFInspectDescription = `Report what pdf_to_image would do with a PDF without rendering it.

**When to use:** Before converting large or unfamiliar documents, or to check that a file is readable at all.

**Returns:** page count, width of the first page in points, which inspector produced the numbers, and the rasterization DPI planned for the requested width.

**Examples:**
• "How many pages does manual.pdf have?"
• "What DPI will a 2000px render of poster.pdf use?"

**Parameters:** path (required), width (pixels, default 1200).`
)
