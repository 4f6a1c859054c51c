package api

import (
    "bufio"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
)

var ErrEmptyBody = errors.New("request body is empty")

// ProcessJsonStream decodes the request body as a JSON array of T or as a
// sequence of T objects and hands each to process in order.
func ProcessJsonStream[T any](r *http.Request, process func(T) error) error {
    defer r.Body.Close()

    reader := bufio.NewReader(r.Body)
    first, err := peekNonSpace(reader)
    if err != nil {
        if errors.Is(err, io.EOF) {
            return ErrEmptyBody
        }
        return fmt.Errorf("error reading first byte: %w", err)
    }

    switch first {
    case '[':
        return processJsonArray(reader, process)
    default:
        return processJsonObjects(reader, process)
    }
}

func peekNonSpace(reader *bufio.Reader) (byte, error) {
    for {
        b, err := reader.Peek(1)
        if err != nil {
            return 0, err
        }
        switch b[0] {
        case ' ', '\t', '\r', '\n':
            if _, err := reader.Discard(1); err != nil {
                return 0, err
            }
        default:
            return b[0], nil
        }
    }
}

func processJsonArray[T any](reader io.Reader, process func(T) error) error {
    decoder := json.NewDecoder(reader)

    tok, err := decoder.Token()
    if err != nil {
        return fmt.Errorf("error reading opening token: %w", err)
    }
    if delim, ok := tok.(json.Delim); !ok || delim != '[' {
        return fmt.Errorf("expected opening [")
    }

    for decoder.More() {
        var item T
        if err := decoder.Decode(&item); err != nil {
            return fmt.Errorf("error decoding array item: %w", err)
        }

        if err := process(item); err != nil {
            return fmt.Errorf("error processing item: %w", err)
        }
    }

    tok, err = decoder.Token()
    if err != nil {
        return fmt.Errorf("error reading closing token: %w", err)
    }
    if delim, ok := tok.(json.Delim); !ok || delim != ']' {
        return fmt.Errorf("expected closing ]")
    }

    return nil
}

func processJsonObjects[T any](reader io.Reader, process func(T) error) error {
    decoder := json.NewDecoder(reader)

    for {
        var item T
        if err := decoder.Decode(&item); err != nil {
            if err == io.EOF {
                break
            }
            return fmt.Errorf("error decoding JSON object: %w", err)
        }

        if err := process(item); err != nil {
            return fmt.Errorf("error processing item: %w", err)
        }
    }

    return nil
}
