package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/ghetzel/argonaut"
	"github.com/ghetzel/cli"
	scrollfriend "github.com/ghetzel/go-scrollfriend"
	"github.com/ghetzel/go-scrollfriend/browser"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-scrollfriend/server"
	"github.com/ghetzel/go-scrollfriend/term"
	"github.com/ghetzel/go-stockutil/log"
)

func main() {
	app := cli.NewApp()
	app.Name = `scrollfriend`
	app.Usage = scrollfriend.Slogan
	app.Version = scrollfriend.Version
	app.EnableBashCompletion = true

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   `log-level, L`,
			Usage:  `Level of log output verbosity`,
			Value:  `info`,
			EnvVar: `LOGLEVEL`,
		},
		cli.StringFlag{
			Name:   `config, c`,
			Usage:  `Read settings from the given TOML file.`,
			EnvVar: `SCROLLFRIEND_CONFIG`,
		},
		cli.BoolFlag{
			Name:   `debug, D`,
			Usage:  `Whether to open the browser in a non-headless mode for debugging purposes.`,
			EnvVar: `SCROLLFRIEND_DEBUG`,
		},
		cli.IntFlag{
			Name:   `remote-debugging-port, R`,
			Usage:  `Explicitly provide the port number for the DevTools protocol.`,
			EnvVar: `SCROLLFRIEND_REMOTE_DEBUG_PORT`,
		},
		cli.StringFlag{
			Name:   `remote-debugging-address, r`,
			Usage:  `If given, connect to an already-running DevTools instance instead of starting a browser.`,
			EnvVar: `SCROLLFRIEND_REMOTE_DEBUG_ADDR`,
		},
		cli.StringFlag{
			Name:  `direction`,
			Usage: `The scroll axis to track: vertical or horizontal.`,
		},
		cli.Float64Flag{
			Name:  `offset`,
			Usage: `An offset correction (in pixels) added to every animated scroll.`,
		},
	}

	var config *scrollfriend.Config

	app.Before = func(c *cli.Context) error {
		log.SetLevelString(c.String(`log-level`))

		if cfg, err := scrollfriend.LoadConfig(c.String(`config`)); err == nil {
			config = cfg
		} else {
			return err
		}

		if direction := c.String(`direction`); direction != `` {
			config.Scroll.Direction = scroll.Direction(direction)

			if !config.Scroll.Direction.IsValid() {
				return fmt.Errorf("invalid direction %q", direction)
			}
		}

		if c.IsSet(`offset`) {
			config.Scroll.Offset = c.Float64(`offset`)
		}

		if c.Bool(`debug`) {
			config.Browser.Debug = true
		}

		if port := c.Int(`remote-debugging-port`); port > 0 {
			config.Browser.RemoteDebuggingPort = port
		}

		if address := c.String(`remote-debugging-address`); address != `` {
			config.Browser.RemoteAddress = address
		}

		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:      `scroll-to`,
			Usage:     `Open a page, smoothly scroll it to a position or element, and print where it ended up.`,
			ArgsUsage: `URL TARGET`,
			Flags: []cli.Flag{
				cli.DurationFlag{
					Name:  `duration, d`,
					Usage: `How long the scroll animation should take.`,
					Value: 600 * time.Millisecond,
				},
				cli.StringFlag{
					Name:  `easing, e`,
					Usage: `The easing function to animate with (e.g. linear, easeInOutCubic, spring).`,
				},
				cli.StringFlag{
					Name:  `container, C`,
					Usage: `A selector for the scrollable element to use instead of the whole document.`,
				},
			},
			Action: func(c *cli.Context) {
				if c.NArg() < 2 {
					log.Fatalf("usage: %s scroll-to URL TARGET", c.App.Name)
				}

				if err := scrollTo(c, config); err != nil {
					log.Fatal(err)
				}
			},
		}, {
			Name:      `watch`,
			Usage:     `Open a page and log every scroll, gesture, and viewport change until interrupted.`,
			ArgsUsage: `URL`,
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  `selector, s`,
					Usage: `Log when elements matching this selector enter or leave the viewport (may be repeated).`,
				},
				cli.StringFlag{
					Name:   `address, a`,
					Usage:  `If given, also serve the scroll monitor at this [address]:port.`,
					EnvVar: `SCROLLFRIEND_SERVER_ADDR`,
				},
			},
			Action: func(c *cli.Context) {
				if c.NArg() < 1 {
					log.Fatalf("usage: %s watch URL", c.App.Name)
				}

				if err := watch(c, config); err != nil {
					log.Fatal(err)
				}
			},
		}, {
			Name:  `demo`,
			Usage: `Scroll a page of coloured sections in the terminal.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  `sections, n`,
					Usage: `How many sections to draw (1-9).`,
				},
				cli.StringFlag{
					Name:   `address, a`,
					Usage:  `If given, also serve the scroll monitor at this [address]:port.`,
					EnvVar: `SCROLLFRIEND_SERVER_ADDR`,
				},
			},
			Action: func(c *cli.Context) {
				if err := demo(c, config); err != nil {
					log.Fatal(err)
				}
			},
		},
	}

	app.Run(os.Args)
}

func openPage(config *scrollfriend.Config, url string) (*browser.Browser, *browser.Page, error) {
	var chrome *browser.Browser

	if address := config.Browser.RemoteAddress; address != `` {
		if b, err := browser.Connect(address); err == nil {
			chrome = b
		} else {
			return nil, nil, err
		}
	} else {
		chrome = browser.NewBrowser()
		chrome.Headless = !config.Browser.Debug
		chrome.RemoteDebuggingPort = config.Browser.RemoteDebuggingPort
		chrome.WindowSize = config.Browser.WindowSize

		if executable := config.Browser.Executable; executable != `` {
			chrome.Command = argonaut.CommandName(executable)
		}

		if err := chrome.Launch(); err != nil {
			return nil, nil, fmt.Errorf("could not launch browser: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if tab, err := chrome.Tab(); err == nil {
		if err := tab.Navigate(ctx, url); err != nil {
			chrome.Stop()
			return nil, nil, err
		}

		if page, err := browser.NewPage(tab); err == nil {
			return chrome, page, nil
		} else {
			chrome.Stop()
			return nil, nil, err
		}
	} else {
		chrome.Stop()
		return nil, nil, err
	}
}

// Run fn on the page's loop and wait for it to return.
func onPage(page *browser.Page, fn func() error) error {
	result := make(chan error, 1)

	page.Post(func() {
		result <- fn()
	})

	return <-result
}

func scrollTo(c *cli.Context, config *scrollfriend.Config) error {
	chrome, page, err := openPage(config, c.Args().Get(0))

	if err != nil {
		return err
	}

	defer chrome.Stop()
	defer page.Close()

	var target interface{} = c.Args().Get(1)

	if position, err := strconv.ParseFloat(c.Args().Get(1), 64); err == nil {
		target = position
	}

	options := &scroll.ScrollToOptions{
		Duration: c.Duration(`duration`),
	}

	if name := c.String(`easing`); name != `` {
		if easing, ok := scroll.EasingByName(name); ok {
			options.Easing = easing
		} else {
			return fmt.Errorf("unknown easing %q", name)
		}
	}

	var container interface{}

	if selector := c.String(`container`); selector != `` {
		container = selector
	}

	done := make(chan struct{})
	var scroller *scroll.Scroller
	var final float64

	options.Complete = func() {
		final = scroller.Position()
		close(done)
	}

	if err := onPage(page, func() error {
		if s, err := scroll.New(page, container, &config.Scroll); err == nil {
			scroller = s
		} else {
			return err
		}

		_, err := scroller.ScrollTo(target, options)
		return err
	}); err != nil {
		return err
	}

	select {
	case <-done:
	case <-time.After(options.Duration + 10*time.Second):
		return fmt.Errorf("timed out waiting for the scroll to finish")
	}

	fmt.Printf(
		"%s %s\n",
		color.New(color.Bold).Sprint(c.Args().Get(1)),
		color.GreenString("%spx", humanize.Commaf(final)),
	)

	return nil
}

func watch(c *cli.Context, config *scrollfriend.Config) error {
	chrome, page, err := openPage(config, c.Args().Get(0))

	if err != nil {
		return err
	}

	defer chrome.Stop()
	defer page.Close()

	selectors := append(config.Server.Watch, c.StringSlice(`selector`)...)
	var scroller *scroll.Scroller

	if err := onPage(page, func() error {
		if s, err := scroll.New(page, nil, &config.Scroll); err == nil {
			scroller = s
		} else {
			return err
		}

		scroller.OnScroll(func(s *scroll.Scroller) {
			log.Infof("scroll    %v", humanize.Commaf(s.Position()))
		}).OnScrollStart(func(s *scroll.Scroller) {
			log.Infof("%s", color.CyanString("start     %v", humanize.Commaf(s.Position())))
		}).OnScrollEnd(func(s *scroll.Scroller) {
			log.Infof("%s", color.CyanString("end       %v", humanize.Commaf(s.Position())))
		})

		for _, selector := range selectors {
			selector := selector

			if err := scroller.OnScrollIn(selector, func(entry scroll.IntersectionEntry) {
				log.Infof("%s", color.GreenString("enter     #%s (%s)", entry.Target.ID(), selector))
			}); err != nil {
				return err
			}

			if err := scroller.OnScrollOut(selector, func(entry scroll.IntersectionEntry) {
				log.Infof("%s", color.YellowString("leave     #%s (%s)", entry.Target.ID(), selector))
			}); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return err
	}

	if address := c.String(`address`); address != `` {
		serve(scroller, address, selectors)
	}

	log.Infof("watching %v (interrupt to stop)", c.Args().Get(0))
	waitForSignal()

	return nil
}

func demo(c *cli.Context, config *scrollfriend.Config) error {
	options := config.Demo

	if sections := c.Int(`sections`); sections > 0 {
		options.Sections = sections
	}

	screen, err := tcell.NewScreen()

	if err != nil {
		return err
	}

	if err := screen.Init(); err != nil {
		return err
	}

	defer screen.Fini()
	screen.EnableMouse()

	if d, err := term.NewDemo(screen, &options); err == nil {
		if address := c.String(`address`); address != `` {
			serve(d.Scroller(), address, []string{`.section`})
		}

		return d.Run(context.Background())
	} else {
		return err
	}
}

func serve(scroller *scroll.Scroller, address string, selectors []string) {
	monitor := server.NewServer(scroller)

	for _, selector := range selectors {
		monitor.Watch(selector)
	}

	go func() {
		if err := monitor.ListenAndServe(address); err != nil {
			log.Errorf("[server] %v", err)
		}
	}()
}

func waitForSignal() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan
}
