// Package printing turns sale documents into ESC/POS byte streams and
// delivers them to receipt printers.
//
// This package contains:
// - Renderer, which lays out tickets, comandas and the test page as RenderOps
// - Money, the locale-aware currency formatter used by the renderers
// - Encoder, which translates RenderOps into ESC/POS commands
// - Transport implementations for raw TCP, system print queues and serial ports
// - Executor, which replays a job onto a transport under a per-address lock
//
// Example usage:
//
//	renderer := NewRenderer(MustMoney("es-MX", "MXN"), RenderSettings{
//	    Greeting:   "¡Gracias por su compra!",
//	    Disclaimer: "Este ticket no es un comprobante fiscal",
//	})
//	executor := NewExecutor(ExecutorConfig{
//	    JobTimeout: 30 * time.Second,
//	    PaperWidth: 48,
//	    CodePage:   "cp858",
//	}, NewTransportFactory(TransportSettings{}, syscmd.NewExecRunner(nil), nil))
//
//	report, err := executor.Execute(ctx, Job{
//	    ID:      uuid.NewString(),
//	    Kind:    printing.DocumentTicket,
//	    Address: printing.TCPAddress("192.168.1.50", 9100),
//	    Ops:     renderer.RenderTicket(sale, cfg, nil),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Sent %d ops, %d bytes\n", report.OpsWritten, report.BytesSent)
package printing
