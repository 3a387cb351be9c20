package reporting

import "time"

// Layout heights, in abstract content rows. Pagination works on these
// units; the renderer maps one row to a fixed vertical distance.
const (
	// DefaultPageHeight is the content capacity of one page, excluding the
	// page header re-emitted on every page.
	DefaultPageHeight = 60

	heightTitleBlock     = 8
	heightSummaryCards   = 8
	heightBar            = 4
	heightMatrix         = 22
	heightSectionHeading = 3
	heightGroupHeading   = 2
	heightFinding        = 3
	heightRecommendation = 3
	heightStatement      = 2
)

// BlockKind discriminates the payload carried by a Block.
type BlockKind string

const (
	BlockTitle          BlockKind = "title"
	BlockSectionHeading BlockKind = "section_heading"
	BlockSummaryCards   BlockKind = "summary_cards"
	BlockBar            BlockKind = "distribution_bar"
	BlockMatrix         BlockKind = "risk_matrix"
	BlockGroupHeading   BlockKind = "group_heading"
	BlockFinding        BlockKind = "finding"
	BlockRecommendation BlockKind = "recommendation"
	BlockStatement      BlockKind = "statement"
)

// SummaryCard is one fixed-size executive summary card.
type SummaryCard struct {
	Label string
	Value string
}

// BarSegment is one proportional segment of a distribution bar. Width is
// count/total scaled to the bar's fixed width; zero-count buckets are never
// emitted as segments.
type BarSegment struct {
	Label string
	Count int
	Width int
}

// DistributionBar is a single proportional bar summarizing one breakdown.
type DistributionBar struct {
	Title    string
	Total    int
	Segments []BarSegment
}

// Finding is one entity line within a grouped findings section.
type Finding struct {
	Name     string
	Detail   string
	Level    string
	Score    int
	HasScore bool
}

// Recommendation is one generated recommendation line.
type Recommendation struct {
	Priority string
	Title    string
	Message  string
}

// TitleInfo is the report title/summary block.
type TitleInfo struct {
	Title        string
	Subtitle     string
	Organization string
	GeneratedAt  time.Time
	Headline     string
}

// Block is one laid-out unit of report content. Exactly one payload field
// is populated, according to Kind.
type Block struct {
	Kind   BlockKind
	Height int

	Text           string
	TitleInfo      *TitleInfo
	Cards          []SummaryCard
	Bar            *DistributionBar
	Matrix         *RiskMatrix
	Finding        *Finding
	Recommendation *Recommendation
}

// Page is one fixed-size page of the finished document.
type Page struct {
	Number int
	Blocks []Block
}

// DocumentBuilder lays blocks out across fixed-size pages. A block that
// would push the running offset past the page height starts a new page; the
// check happens per block, so a logical section may span several pages.
type DocumentBuilder struct {
	pageHeight int
	pages      []*Page
	offset     int
}

// NewDocumentBuilder creates a builder with the given page content height.
func NewDocumentBuilder(pageHeight int) *DocumentBuilder {
	if pageHeight <= 0 {
		pageHeight = DefaultPageHeight
	}
	b := &DocumentBuilder{pageHeight: pageHeight}
	b.newPage()
	return b
}

func (b *DocumentBuilder) newPage() {
	b.pages = append(b.pages, &Page{Number: len(b.pages) + 1})
	b.offset = 0
}

// Add appends one block, starting a new page first if the block does not
// fit on the current one. Blocks taller than a full page are still emitted
// on a page of their own rather than dropped.
func (b *DocumentBuilder) Add(block Block) {
	if b.offset > 0 && b.offset+block.Height > b.pageHeight {
		b.newPage()
	}
	page := b.pages[len(b.pages)-1]
	page.Blocks = append(page.Blocks, block)
	b.offset += block.Height
}

// Pages returns the laid-out pages in order.
func (b *DocumentBuilder) Pages() []*Page {
	return b.pages
}
