package core

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/enrich"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fallback"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/language"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

const defaultTruncateLength = 2000

// documentNamespace seeds the name-based ids of documents without a source id.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:invoice-extractor:document"))

// Processor coordinates the completion extractor, the regex fallback and
// enrichment for one document at a time.
type Processor struct {
	logger     *slog.Logger
	completion llm.StructuredExtractor // nil disables the completion path
	fallback   *fallback.Extractor
	enricher   *enrich.Enricher
	detector   *language.Detector
	truncate   int
	merge      constants.MergePolicy
}

func NewProcessor(
	logger *slog.Logger,
	completion llm.StructuredExtractor,
	fallbackExtractor *fallback.Extractor,
	enricher *enrich.Enricher,
	cfg common.ProcessingConfig,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if fallbackExtractor == nil {
		fallbackExtractor = fallback.NewExtractor(common.DefaultConfig().Extraction, logger)
	}
	if enricher == nil {
		enricher = enrich.NewEnricher(common.DefaultConfig().Quality, logger)
	}
	if cfg.TruncateLength <= 0 {
		cfg.TruncateLength = defaultTruncateLength
	}
	if cfg.MergePolicy == "" {
		cfg.MergePolicy = constants.MergeNone
	}
	return &Processor{
		logger:     logger,
		completion: completion,
		fallback:   fallbackExtractor,
		enricher:   enricher,
		detector:   language.NewDetector(),
		truncate:   cfg.TruncateLength,
		merge:      cfg.MergePolicy,
	}
}

type state int

const (
	stateStart state = iota
	stateTryCompletion
	stateSuccess
	stateFallback
	stateMerge
	stateEnrich
	stateDone
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateTryCompletion:
		return "try_completion"
	case stateSuccess:
		return "success"
	case stateFallback:
		return "fallback"
	case stateMerge:
		return "merge"
	case stateEnrich:
		return "enrich"
	case stateDone:
		return "done"
	default:
		return "invalid"
	}
}

// extraction is the working state of one ExtractMetadata call.
type extraction struct {
	doc      entity.InvoiceDocument
	lang     constants.Language
	metadata entity.ExtractedMetadata
	method   constants.ExtractionMethod
}

// ExtractMetadata runs the extraction state machine for doc. The only error
// is an invalid input error for a document without content; every other
// document yields a result, possibly with every field absent.
func (p *Processor) ExtractMetadata(ctx context.Context, doc entity.InvoiceDocument) (entity.ExtractionResult, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	log := common.LoggerFromContext(ctx, p.logger).With("filename", doc.Filename)

	run := &extraction{doc: doc}
	for st := stateStart; st != stateDone; {
		next, err := p.step(ctx, log, st, run)
		if err != nil {
			return entity.ExtractionResult{}, err
		}
		log.Debug("processor.transition", "from", st, "to", next)
		st = next
	}

	res := entity.ExtractionResult{
		DocumentID:       DocumentID(doc),
		TruncatedContent: patterns.TruncateRunes(doc.Content, p.truncate),
		Metadata:         run.metadata,
		ExtractionMethod: run.method,
	}
	log.Info("processor.done",
		"document_id", res.DocumentID,
		"method", res.ExtractionMethod,
		"fields", res.Metadata.PopulatedFields(),
		"confidence", res.Metadata.ExtractionConfidence,
	)
	return res, nil
}

func (p *Processor) step(ctx context.Context, log *slog.Logger, st state, run *extraction) (state, error) {
	switch st {
	case stateStart:
		if strings.TrimSpace(run.doc.Content) == "" {
			log.Warn("processor.invalid_input", "reason", "empty content")
			return stateDone, common.NewInvalidInputError("document content is empty")
		}
		run.lang = p.detector.Detect(run.doc.Content)
		return stateTryCompletion, nil

	case stateTryCompletion:
		if p.completion == nil {
			return stateFallback, nil
		}
		out := p.completion.ExtractStructured(ctx, llm.ExtractRequest{
			Text:       run.doc.Content,
			Filename:   run.doc.Filename,
			MaxRetries: -1,
		})
		if !out.OK() {
			log.Warn("processor.completion.failed",
				"kind", out.Failure, "attempts", out.Attempts, "error", out.Err)
			return stateFallback, nil
		}
		m := enrich.FromPayload(out.Payload, run.lang)
		if m.PopulatedFields() == 0 {
			log.Warn("processor.completion.unusable", "payload_fields", out.Payload.PopulatedFields())
			return stateFallback, nil
		}
		run.metadata, run.method = m, constants.MethodCompletion
		return stateSuccess, nil

	case stateSuccess:
		if p.merge == constants.MergeFillGaps {
			return stateMerge, nil
		}
		return stateEnrich, nil

	case stateFallback:
		run.metadata = p.fallback.Extract(run.doc.Content, run.lang)
		run.method = constants.MethodFallback
		log.Info("processor.fallback", "language", run.lang, "fields", run.metadata.PopulatedFields())
		return stateEnrich, nil

	case stateMerge:
		gaps := p.fallback.Extract(run.doc.Content, run.lang)
		if filled := fillGaps(&run.metadata, gaps); filled > 0 {
			run.method = constants.MethodHybrid
			log.Info("processor.merge", "filled", filled)
		}
		return stateEnrich, nil

	case stateEnrich:
		run.metadata = p.enricher.Enrich(run.metadata, run.doc.Content)
		return stateDone, nil
	}
	return stateDone, common.NewAppError(common.CodeInternal, "invalid processor state "+st.String(), common.ErrInternal)
}

// DocumentID returns the source id, or a name-based UUID over filename and
// content so repeated runs over the same document agree.
func DocumentID(doc entity.InvoiceDocument) string {
	if id := strings.TrimSpace(doc.SourceID); id != "" {
		return id
	}
	return uuid.NewSHA1(documentNamespace, []byte(doc.Filename+"\x00"+doc.Content)).String()
}

// fillGaps copies fields of src into the absent fields of dst and reports how
// many were filled. Language is left to enrichment.
func fillGaps(dst *entity.ExtractedMetadata, src entity.ExtractedMetadata) int {
	n := 0
	fill := func(ok bool) {
		if ok {
			n++
		}
	}
	fill(fillPtr(&dst.Date, src.Date))
	fill(fillPtr(&dst.DueDate, src.DueDate))
	fill(fillPtr(&dst.InvoiceNumber, src.InvoiceNumber))
	fill(fillPtr(&dst.ReferenceNumber, src.ReferenceNumber))
	fill(fillPtr(&dst.CustomerNumber, src.CustomerNumber))
	fill(fillPtr(&dst.ClientName, src.ClientName))
	fill(fillPtr(&dst.CompanyName, src.CompanyName))
	fill(fillPtr(&dst.Amount, src.Amount))
	fill(fillPtr(&dst.TaxAmount, src.TaxAmount))
	fill(fillPtr(&dst.Currency, src.Currency))

	if dst.DocumentType == constants.DocumentUnknown && src.DocumentType != constants.DocumentUnknown {
		dst.DocumentType = src.DocumentType
		n++
	}
	if dst.PaymentStatus == constants.PaymentUnknown && src.PaymentStatus != constants.PaymentUnknown {
		dst.PaymentStatus = src.PaymentStatus
		n++
	}
	if len(dst.LineItems) == 0 && len(src.LineItems) > 0 {
		dst.LineItems = src.LineItems
		n++
	}
	return n
}

func fillPtr[T any](dst **T, src *T) bool {
	if *dst != nil || src == nil {
		return false
	}
	*dst = src
	return true
}
