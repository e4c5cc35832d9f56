// Package walker turns an observed UI node graph into Event Records.
// Package walker 将观察到的 UI 节点图转换为事件记录。
package walker

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/livp123/axtext/internal/metrics"
	"github.com/livp123/axtext/internal/utils/logger"
	apperrors "github.com/livp123/axtext/pkg/errors"
	"github.com/livp123/axtext/pkg/record"
)

const (
	DefaultHintPrefix        = "HINT: "
	DefaultDescriptionSuffix = "_description"
	DefaultHintSuffix        = "_hint"
	DefaultMaxDepth          = 64
)

// DefaultEditClasses are node class suffixes treated as edit-capable fields.
var DefaultEditClasses = []string{"EditText", "AXTextField", "AXTextArea", "AXSearchField", "TextBox"}

// Sink receives emitted records. *eventlog.Log satisfies it.
// Sink 接收发出的记录，*eventlog.Log 满足该接口。
type Sink interface {
	Append(record.Record)
}

// Options configures a Walker.
type Options struct {
	// SelfApp is the identifier of the observing process; its own UI is never captured.
	SelfApp           string
	HintPrefix        string
	DescriptionSuffix string
	HintSuffix        string
	EditClasses       []string
	MaxDepth          int
	Clock             func() time.Time
	Logger            logger.Logger
}

// Walker holds no per-invocation state, so Extract may run concurrently.
// Walker 不保存调用间状态，因此 Extract 可以并发运行。
type Walker struct {
	sink              Sink
	selfApp           string
	hintPrefix        string
	descriptionSuffix string
	hintSuffix        string
	editClasses       []string
	maxDepth          int
	clock             func() time.Time
	logger            logger.Logger
}

// New creates a Walker that emits into sink.
// New 创建一个向 sink 发送记录的 Walker。
func New(sink Sink, opts Options) *Walker {
	w := &Walker{
		sink:              sink,
		selfApp:           opts.SelfApp,
		hintPrefix:        opts.HintPrefix,
		descriptionSuffix: opts.DescriptionSuffix,
		hintSuffix:        opts.HintSuffix,
		editClasses:       opts.EditClasses,
		maxDepth:          opts.MaxDepth,
		clock:             opts.Clock,
		logger:            opts.Logger,
	}
	if w.hintPrefix == "" {
		w.hintPrefix = DefaultHintPrefix
	}
	if w.descriptionSuffix == "" {
		w.descriptionSuffix = DefaultDescriptionSuffix
	}
	if w.hintSuffix == "" {
		w.hintSuffix = DefaultHintSuffix
	}
	if len(w.editClasses) == 0 {
		w.editClasses = DefaultEditClasses
	}
	if w.maxDepth <= 0 {
		w.maxDepth = DefaultMaxDepth
	}
	if w.clock == nil {
		w.clock = time.Now
	}
	if w.logger == nil {
		w.logger = zap.NewNop().Sugar()
	}
	return w
}

// Handle is the upstream entry point: it extracts obs and logs, rather than
// returns, any rejection.
// Handle 是上游入口：提取 obs，并记录（而非返回）任何拒绝。
func (w *Walker) Handle(obs Observation) {
	if _, err := w.Extract(obs); err != nil {
		if apperrors.Is(err, apperrors.ErrSelfObservation) {
			w.logger.Debugf("Skipping observation: %v", err)
			return
		}
		w.logger.Warnf("⚠️  Observation rejected: %v", err)
	}
}

// Extract emits the event's own texts, then walks the tree depth-first in
// pre-order. It takes ownership of obs.Root. Top-level rejections return an
// error with nothing emitted; per-node failures are logged and skipped.
// Extract 先发出事件自身的文本，再以深度优先前序遍历节点树。
func (w *Walker) Extract(obs Observation) (int, error) {
	if obs.Root != nil {
		defer obs.Root.Release()
	}

	if err := w.accept(obs); err != nil {
		return 0, err
	}

	t := &traversal{w: w, obs: obs}
	for _, text := range obs.Texts {
		t.emit(text, obs.Kind, "", "", "event")
	}
	t.emit(obs.Description, obs.Kind+w.descriptionSuffix, "", "", "event")

	t.walkRoot(obs.Root)
	return t.emitted, nil
}

func (w *Walker) accept(obs Observation) error {
	switch {
	case strings.TrimSpace(obs.SourceApp) == "":
		metrics.ObservationsRejected.WithLabelValues("missing_source_app").Inc()
		return apperrors.ErrMissingSourceApp
	case w.selfApp != "" && obs.SourceApp == w.selfApp:
		metrics.ObservationsRejected.WithLabelValues("self").Inc()
		return fmt.Errorf("%w: %s", apperrors.ErrSelfObservation, obs.SourceApp)
	case obs.Root == nil:
		metrics.ObservationsRejected.WithLabelValues("root_unresolvable").Inc()
		return fmt.Errorf("%w: app=%s kind=%s", apperrors.ErrRootUnresolvable, obs.SourceApp, obs.Kind)
	}
	return nil
}

func (w *Walker) editable(class string) bool {
	if class == "" {
		return false
	}
	for _, c := range w.editClasses {
		if strings.HasSuffix(class, c) {
			return true
		}
	}
	return false
}

type traversal struct {
	w       *Walker
	obs     Observation
	emitted int
}

func (t *traversal) emit(text, kind, class, id, source string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	t.w.sink.Append(record.NewAt(record.Fields{
		SourceApp:   t.obs.SourceApp,
		DisplayName: t.obs.DisplayName,
		Text:        text,
		NodeClass:   class,
		NodeID:      id,
		Kind:        kind,
	}, t.w.clock()))
	t.emitted++
	metrics.RecordsEmitted.WithLabelValues(source).Inc()
}

func (t *traversal) fail(err error) {
	metrics.NodeFailures.Inc()
	t.w.logger.Warnf("⚠️  Skipping node in %s: %v", t.obs.SourceApp, err)
}

func (t *traversal) recoverAt(depth int) {
	if p := recover(); p != nil {
		t.fail(fmt.Errorf("%w: panic at depth %d: %v", apperrors.ErrNodeRead, depth, p))
	}
}

func (t *traversal) walkRoot(root Node) {
	t.visitNode(root, 0)
}

// visit handles one child handle and owns it.
func (t *traversal) visit(n Node, depth int) {
	defer n.Release()

	if depth > t.w.maxDepth {
		t.fail(apperrors.NewDepthError(depth, t.w.maxDepth))
		return
	}
	t.visitNode(n, depth)
}

// visitNode recovers field reads and child enumeration separately, so a
// node whose own fields cannot be read still has its children visited.
func (t *traversal) visitNode(n Node, depth int) {
	t.safeFields(n, depth)

	defer t.recoverAt(depth)
	t.visitChildren(n, depth)
}

func (t *traversal) safeFields(n Node, depth int) {
	defer t.recoverAt(depth)
	t.visitFields(n, depth)
}

type nodeFields struct {
	text, desc, hint, class, id string
}

func (t *traversal) readFields(n Node, depth int) (nodeFields, error) {
	var f nodeFields
	var err error
	if f.class, err = n.NodeClass(); err != nil {
		return f, apperrors.NewNodeError("class", depth, err)
	}
	if f.id, err = n.NodeID(); err != nil {
		return f, apperrors.NewNodeError("id", depth, err)
	}
	if f.text, err = n.PrimaryText(); err != nil {
		return f, apperrors.NewNodeError("text", depth, err)
	}
	if f.desc, err = n.Description(); err != nil {
		return f, apperrors.NewNodeError("description", depth, err)
	}
	if t.w.editable(f.class) {
		if f.hint, err = n.HintText(); err != nil {
			return f, apperrors.NewNodeError("hint", depth, err)
		}
	}
	return f, nil
}

// visitFields emits the node's own records. A read failure drops all of them
// so a node is never half-captured.
func (t *traversal) visitFields(n Node, depth int) {
	f, err := t.readFields(n, depth)
	if err != nil {
		t.fail(err)
		return
	}
	kind := t.obs.Kind
	t.emit(f.text, kind, f.class, f.id, "tree")
	t.emit(f.desc, kind+t.w.descriptionSuffix, f.class, f.id, "tree")
	if strings.TrimSpace(f.hint) != "" {
		t.emit(t.w.hintPrefix+f.hint, kind+t.w.hintSuffix, f.class, f.id, "tree")
	}
}

func (t *traversal) visitChildren(n Node, depth int) {
	count, err := n.ChildCount()
	if err != nil {
		t.fail(apperrors.NewNodeError("children", depth, err))
		return
	}
	for i := 0; i < count; i++ {
		child, err := n.Child(i)
		if err != nil {
			t.fail(apperrors.NewNodeError(fmt.Sprintf("child[%d]", i), depth, err))
			continue
		}
		if child == nil {
			continue
		}
		t.visit(child, depth+1)
	}
}
