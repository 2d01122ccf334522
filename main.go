package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zeromicro/go-zero/core/logc"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/trace"

	"gomod.pri/spellkit/apollo"
	"gomod.pri/spellkit/apollo/portal"
	"gomod.pri/spellkit/bus"
	"gomod.pri/spellkit/collector"
	"gomod.pri/spellkit/config"
	"gomod.pri/spellkit/dictstore"
	_ "gomod.pri/spellkit/kmscred/aliyun"
	_ "gomod.pri/spellkit/kmscred/aws"
	_ "gomod.pri/spellkit/kmscred/huawei"
	"gomod.pri/spellkit/notify"
	"gomod.pri/spellkit/rocketmq"
	"gomod.pri/spellkit/spell"
	"gomod.pri/spellkit/storage"
	"gomod.pri/spellkit/xerror"
	"gomod.pri/spellkit/xredis"
	"gomod.pri/spellkit/xrequest"
	"gomod.pri/spellkit/xtrace"
	"gomod.pri/spellkit/xutils/logutil"
)

var (
	configFile = flag.String("f", "etc/spellkit.yaml", "the config file")
	asEntry    = flag.Bool("entry", false, "add: terminate the word with CRLF")
)

const usage = `usage: spellkit [-f config] [-entry] <command> [arg]

commands:
  add WORD       append WORD to the custom dictionary
  show           print the custom dictionary
  scan FILE      spell-check FILE and print the collected result
  publish FILE   spell-check FILE and send the events to rocketmq
  consume        rebuild remote scans from rocketmq until interrupted
  result ID      print a cached scan result
  restore        replace the local dictionary with the mirrored copy
  set-path PATH  publish a new dictionary path through the apollo portal
`

type app struct {
	c        config.Config
	svc      *spell.Service
	paths    *apollo.PathWatcher
	cache    *xredis.ResultCache
	closers  []func()
	notifier notify.Notification
}

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := setup(ctx, c)
	data, err := a.run(ctx, flag.Arg(0), flag.Args()[1:])
	a.close()

	var resp *xrequest.Response[any]
	if err != nil {
		resp = xrequest.NewErrRespWithCtx(ctx, err)
	} else {
		resp = xrequest.NewDataRespWithCtx(ctx, data)
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))
	if err != nil {
		os.Exit(1)
	}
}

func setup(ctx context.Context, c config.Config) *app {
	logx.MustSetup(c.Log)
	a := &app{c: c}

	trace.StartAgent(c.Telemetry)
	xtrace.InjectDetector()
	a.closers = append(a.closers, trace.StopAgent)

	if c.Notify.Enabled() {
		nc, err := c.Notify.NotificationConfig()
		var n notify.Notification
		if err == nil {
			n, err = notify.NewNotification(nc)
		}
		if err != nil {
			logc.Errorf(ctx, "notify disabled: %v", err)
		} else {
			a.notifier = n
			hook := logutil.NewHookWriter(os.Stdout, c.Notify, func(ctx context.Context, content string) error {
				return n.SendText(ctx, content, false, nil)
			})
			logx.SetWriter(logx.NewWriter(hook))
			a.closers = append(a.closers, hook.Close)
		}
	}

	a.paths = apollo.NewPathWatcher(c.Dictionary.Path)
	if c.Apollo.Enabled() {
		client, err := apollo.NewClient(c.Apollo, a.paths)
		if err != nil {
			logc.Errorf(ctx, "apollo disabled: %v", err)
		} else {
			a.paths.Seed(client.Value(apollo.DictionaryPathKey))
			a.closers = append(a.closers, client.Close)
		}
	}

	var storeOpts []dictstore.Option
	if c.Dictionary.AtomicWrite {
		storeOpts = append(storeOpts, dictstore.WithAtomicWrite())
	}
	opts := []spell.Option{spell.WithStore(dictstore.New(storeOpts...))}
	if a.notifier != nil {
		opts = append(opts, spell.WithNotifier(a.notifier))
	}

	if c.Redis.Enabled() {
		rdb := xredis.NewClient(c.Redis)
		a.cache = xredis.NewResultCache(rdb, c.Redis.Prefix, c.Redis.TTL)
		onFinished := spell.CacheResults(a.cache)
		if err := bus.Subscribe(bus.TopicScanFinished, onFinished); err != nil {
			logc.Errorf(ctx, "result cache disabled: %v", err)
		} else {
			a.closers = append(a.closers, func() { _ = bus.Unsubscribe(bus.TopicScanFinished, onFinished) })
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	if c.Storage.Enabled() {
		s, err := storage.NewStorage(ctx, c.Storage)
		if err != nil {
			logc.Errorf(ctx, "dictionary mirror disabled, provider %s: %v", xerror.GetProvider(err), err)
		} else {
			opts = append(opts, spell.WithMirror(storage.NewMirror(s, c.Dictionary.MirrorKey)))
		}
	}

	a.svc = spell.New(a.paths, opts...)
	return a
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) (any, error) {
	arg := func() (string, error) {
		if len(args) == 0 {
			return "", xerror.New(xerror.CodeInvalidParams, fmt.Errorf("%s needs an argument", cmd), true)
		}
		return args[0], nil
	}

	switch cmd {
	case "add":
		word, err := arg()
		if err != nil {
			return nil, err
		}
		return nil, a.svc.AddWord(ctx, spell.AddWordRequest{Word: word, AsEntry: *asEntry})

	case "show":
		return a.svc.Dictionary(ctx)

	case "scan":
		text, err := a.readArg(arg)
		if err != nil {
			return nil, err
		}
		return a.svc.Scan(ctx, a.engine(ctx), text)

	case "publish":
		text, err := a.readArg(arg)
		if err != nil {
			return nil, err
		}
		if !a.c.Producer.Enabled() {
			return nil, xerror.New(xerror.CodeInvalidParams, errors.New("no Producer configured"), true)
		}
		p, err := rocketmq.NewProducer(a.c.Producer)
		if err != nil {
			return nil, xerror.New(xerror.CodeUnableConnect, err)
		}
		defer p.Stop()
		scanID, err := a.svc.PublishScan(ctx, a.engine(ctx), text, p)
		return map[string]string{"scan_id": scanID}, err

	case "consume":
		return a.consume(ctx)

	case "result":
		id, err := arg()
		if err != nil {
			return nil, err
		}
		if a.cache == nil {
			return nil, xerror.New(xerror.CodeInvalidParams, errors.New("no Redis configured"), true)
		}
		return a.cache.Get(ctx, id)

	case "restore":
		return nil, a.svc.Restore(ctx)

	case "set-path":
		path, err := arg()
		if err != nil {
			return nil, err
		}
		return nil, a.setPath(ctx, path)

	default:
		return nil, xerror.New(xerror.CodeInvalidParams, fmt.Errorf("unknown command %q", cmd), true)
	}
}

func (a *app) readArg(arg func() (string, error)) (string, error) {
	file, err := arg()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", xerror.New(xerror.CodeInvalidParams, err)
	}
	return string(data), nil
}

// engine knows the configured words plus the custom dictionary, when one
// is available.
func (a *app) engine(ctx context.Context) spell.Engine {
	words := a.c.Words
	if a.c.WordsFile != "" {
		data, err := os.ReadFile(a.c.WordsFile)
		if err != nil {
			logc.Errorf(ctx, "read words file %s: %v", a.c.WordsFile, err)
		} else {
			words = append(words, strings.Fields(string(data))...)
		}
	}

	e := spell.NewWordListEngine(words...)
	if content, err := a.svc.Dictionary(ctx); err == nil {
		e.AddDictionary(content)
	}
	return e
}

func (a *app) consume(ctx context.Context) ([]*collector.Result, error) {
	if !a.c.Consumer.Enabled() {
		return nil, xerror.New(xerror.CodeInvalidParams, errors.New("no Consumer configured"), true)
	}

	h := spell.NewEventHandler(bus.Default())
	consumer, err := rocketmq.NewConsumer[spell.ScanEvent](&a.c.Consumer, h)
	if err != nil {
		return nil, xerror.New(xerror.CodeUnableConnect, err)
	}

	go func() {
		<-ctx.Done()
		consumer.Stop()
	}()
	if err = consumer.Start(); err != nil {
		return nil, xerror.New(xerror.CodeUnableConnect, err)
	}
	return h.Finished(), nil
}

func (a *app) setPath(ctx context.Context, path string) error {
	if !a.c.Portal.Enabled() {
		return xerror.New(xerror.CodeInvalidParams, errors.New("no Portal configured"), true)
	}

	client := portal.NewClient(a.c.Portal)
	if err := client.UpsertItem(ctx, apollo.DictionaryPathKey, path, "set by spellkit"); err != nil {
		return xerror.New(xerror.CodeCallFailed, err)
	}
	if err := client.Publish(ctx, "dictionary path", path); err != nil {
		return xerror.New(xerror.CodeCallFailed, err)
	}
	a.paths.Seed(path)
	return nil
}
