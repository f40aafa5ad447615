// Command mirviz is an HTTP visualizer for compiled CFGs: POST a JSON
// iseq document to /visualize and get back a Graphviz DOT rendering of
// its compiled control-flow graph, one node per basic block.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/yalcin/yarvjit/internal/compiler"
	"github.com/yalcin/yarvjit/internal/iseq"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>yarvjit CFG visualizer</title></head>
<body>
<h1>yarvjit CFG visualizer</h1>
<form action="/visualize" method="post" enctype="text/plain">
<textarea name="iseq" rows="20" cols="80" placeholder="paste a JSON iseq document"></textarea><br>
<input type="submit" value="Visualize">
</form>
</body>
</html>`

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, indexHTML)
}

func handleVisualize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("reading body: %v", err), http.StatusBadRequest)
		return
	}
	// The index page's text/plain form sends "iseq=<document>"; a raw
	// JSON body is accepted as is.
	body = bytes.TrimPrefix(body, []byte("iseq="))

	var seq iseq.ISeq
	if err := seq.UnmarshalJSON(body); err != nil {
		http.Error(w, fmt.Sprintf("parsing iseq: %v", err), http.StatusBadRequest)
		return
	}

	module, err := compiler.CompileISeq(&seq, seq.Name)
	if err != nil {
		http.Error(w, fmt.Sprintf("compile error: %v", err), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	for _, fn := range module.Functions() {
		fmt.Fprint(w, fn.ToDot())
	}
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	http.HandleFunc("/", serveIndex)
	http.HandleFunc("/visualize", handleVisualize)

	log.Printf("mirviz listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
