package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Domain uint8

const (
	UnknownDomain Domain = iota
	AllDomain
	InitDomain
	GraphDomain
	PackageInfoDomain
	DiscoveryDomain
	PrinterDomain
	RenderDomain
	AnalysisDomain
)

var domainNames = map[Domain]string{
	AllDomain:         "all",
	InitDomain:        "init",
	GraphDomain:       "graph",
	PackageInfoDomain: "pkginfo",
	DiscoveryDomain:   "discovery",
	PrinterDomain:     "printer",
	RenderDomain:      "render",
	AnalysisDomain:    "analysis",
}

func domainFromString(domain string) Domain {
	for d, name := range domainNames {
		if name == domain {
			return d
		}
	}
	return UnknownDomain
}

func stringFromDomain(domain Domain) string {
	return domainNames[domain]
}

// Builder hands out named loggers, one per domain, each filtered at its own level.
type Builder struct {
	log          *zap.Logger
	enc          *consoleEncoder
	defaultLevel zapcore.Level
	domainLevels map[Domain]zapcore.Level
	cache        map[Domain]*Logger
}

func NewBuilder(out zapcore.WriteSyncer) *Builder {
	enc := newEncoder()
	return &Builder{
		log:          zap.New(zapcore.NewCore(enc, out, zapcore.DebugLevel)),
		enc:          enc,
		domainLevels: map[Domain]zapcore.Level{},
		cache:        map[Domain]*Logger{},
	}
}

// SetDomainLevel changes the level of the named domain, or of every domain without an explicit
// level when 'all' is passed. It must be called before any logger for the domain is retrieved.
func (b *Builder) SetDomainLevel(domain string, level zapcore.Level) {
	d := domainFromString(domain)
	switch d {
	case UnknownDomain:
		b.log.Warn("Unrecognised logger domain.", zap.String("domain", domain))
	case AllDomain:
		b.defaultLevel = level
	default:
		b.domainLevels[d] = level
	}
}

func (b *Builder) Log() *Logger {
	return b.logger(AllDomain)
}

func (b *Builder) Domain(domain Domain) *Logger {
	return b.logger(domain)
}

func (b *Builder) logger(domain Domain) *Logger {
	if _, ok := b.cache[domain]; !ok {
		targetLevel := b.defaultLevel
		if lvl, ok := b.domainLevels[domain]; ok {
			targetLevel = lvl
		}
		b.cache[domain] = &Logger{
			Logger: b.log.Named(stringFromDomain(domain)).WithOptions(zap.IncreaseLevel(targetLevel)),
			enc:    b.enc,
		}
	}
	return b.cache[domain]
}

type Logger struct {
	*zap.Logger
	enc *consoleEncoder
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), enc: newEncoder()}
}

func (l *Logger) AddIndent() {
	*l.enc.indent++
}

func (l *Logger) RemoveIndent() {
	if *l.enc.indent > 0 {
		*l.enc.indent--
	}
}
