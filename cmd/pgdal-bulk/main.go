// Command pgdal-bulk runs transactional COPY loads and exports from the
// command line. Sources and sinks are local files or s3://bucket/key URIs;
// S3 credentials come from AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY with an
// optional S3_ENDPOINT override for minio-style deployments.
//
// Load a CSV into the book table through a staging table:
//
//	pgdal-bulk -mode load -dsn $DSN -table book -cols 'id:bigint,name:text' \
//	    -source books.csv -format csv \
//	    -merge 'insert into book select * from tmp_book on conflict do nothing'
//
// Export a query to S3:
//
//	pgdal-bulk -mode export -dsn $DSN -query 'select * from book' \
//	    -out s3://exports/books.csv -format csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bsnacks000/pgdal/bulk"
	"github.com/bsnacks000/pgdal/logging"
)

func main() {
	var (
		mode   = flag.String("mode", "load", "load or export")
		dsn    = flag.String("dsn", "", "postgres DSN")
		table  = flag.String("table", "", "destination table (load)")
		cols   = flag.String("cols", "", "staging columns as name:type[:postfix],... (load)")
		source = flag.String("source", "", "input file or s3://bucket/key (load)")
		format = flag.String("format", "csv", "copy format: text, csv or binary")
		post   = flag.String("post", "", "optional post-copy statement (load)")
		merge  = flag.String("merge", "", "merge statement from the staging table (load)")
		query  = flag.String("query", "", "query to export (export)")
		out    = flag.String("out", "", "output file or s3://bucket/key (export)")
	)
	flag.Parse()

	ctx := context.Background()
	log := logging.NewJSON(os.Stdout, slog.LevelInfo)

	if *dsn == "" {
		fatal(ctx, log, "missing -dsn", nil)
	}

	var err error
	switch *mode {
	case "load":
		err = runLoad(ctx, log, *dsn, *table, *cols, *source, *format, *post, *merge)
	case "export":
		err = runExport(ctx, log, *dsn, *query, *out, *format)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		fatal(ctx, log, "bulk run failed", err)
	}
}

func fatal(ctx context.Context, log logging.Logger, msg string, err error) {
	if err != nil {
		log.Error(ctx, msg, "error", err)
	} else {
		log.Error(ctx, msg)
	}
	os.Exit(1)
}

func runLoad(ctx context.Context, log logging.Logger, dsn, table, cols, source, format, post, merge string) error {
	if table == "" || cols == "" || source == "" || merge == "" {
		return fmt.Errorf("load requires -table, -cols, -source and -merge")
	}

	columns, err := parseCols(cols)
	if err != nil {
		return err
	}

	src, err := openSource(ctx, source)
	if err != nil {
		return err
	}
	defer src.Close()

	load := bulk.Load{
		Tmp:    bulk.TempTable{Name: "tmp_" + table, Cols: columns},
		Source: src,
		Format: bulk.CopyFormat(format),
		Target: bulk.Stmt{SQL: merge},
	}
	if post != "" {
		load.PostCopy = &bulk.Stmt{SQL: post}
	}

	script := &bulk.Script{URL: dsn, Ops: []bulk.Op{load}, Log: log}
	return script.Run(ctx)
}

func runExport(ctx context.Context, log logging.Logger, dsn, query, out, format string) error {
	if query == "" || out == "" {
		return fmt.Errorf("export requires -query and -out")
	}

	sink, err := openSink(ctx, out)
	if err != nil {
		return err
	}

	export := bulk.Export{Query: query, Output: sink, Format: bulk.CopyFormat(format)}
	script := &bulk.Script{URL: dsn, Ops: []bulk.Op{export}, Log: log}

	if err := script.Run(ctx); err != nil {
		_ = sink.Close()
		return err
	}
	return sink.Close()
}

// parseCols parses "id:bigint,name:text:not null" into column definitions.
func parseCols(spec string) (bulk.Columns, error) {
	var cols bulk.Columns
	for _, part := range strings.Split(spec, ",") {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 3)
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("invalid column spec %q", part)
		}
		c := bulk.Column{Name: fields[0], Type: fields[1]}
		if len(fields) == 3 {
			c.Postfix = fields[2]
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func s3FromEnv(ctx context.Context) (*bulk.S3Config, error) {
	cfg := &bulk.S3Config{
		Region:       os.Getenv("AWS_REGION"),
		AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		BaseEndpoint: os.Getenv("S3_ENDPOINT"),
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return cfg, nil
}

func splitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q", uri)
	}
	return bucket, key, nil
}

func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "s3://") {
		return os.Open(source)
	}

	bucket, key, err := splitS3URI(source)
	if err != nil {
		return nil, err
	}
	cfg, err := s3FromEnv(ctx)
	if err != nil {
		return nil, err
	}
	client, err := bulk.NewS3Client(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	return bulk.OpenS3Source(ctx, client, bucket, key)
}

func openSink(ctx context.Context, out string) (io.WriteCloser, error) {
	if !strings.HasPrefix(out, "s3://") {
		return os.Create(out)
	}

	bucket, key, err := splitS3URI(out)
	if err != nil {
		return nil, err
	}
	cfg, err := s3FromEnv(ctx)
	if err != nil {
		return nil, err
	}
	client, err := bulk.NewS3Client(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	return bulk.NewS3Sink(ctx, client, bucket, key), nil
}
